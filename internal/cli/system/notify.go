package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/reminder"
)

var nowFunc = time.Now

// NotifyCmd delivers the reminders due in the current minute. It is meant to
// be run every minute by the OS scheduler when the watch daemon is not used.
type NotifyCmd struct {
	DryRun bool   `help:"Print notifications to stdout instead of sending them."`
	Text   string `help:"Send this text as a test notification and exit."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	if c.Text != "" {
		if c.DryRun {
			fmt.Println("[DryRun] " + c.Text)
			return nil
		}
		return ctx.Deliverer.Deliver(ctx.Context(), constants.AppName, c.Text)
	}

	if !ctx.Config.Notifications.Enabled {
		if c.DryRun {
			fmt.Println("Notifications are disabled in the configuration.")
		}
		return nil
	}

	now := nowFunc().In(ctx.Location)
	minuteStart := now.Truncate(time.Minute)
	minuteEnd := minuteStart.Add(time.Minute)

	// A day either side covers every lead time a reminder can reasonably have
	r := models.DateRange{Start: minuteStart.AddDate(0, 0, -1), End: minuteEnd.AddDate(0, 0, 2)}
	visits, err := ctx.Repository.List(ctx.Context(), r)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}

	sent := 0
	for _, v := range visits {
		fireDate, title, body, ok := reminder.BuildReminder(v)
		if !ok || fireDate.Before(minuteStart) || !fireDate.Before(minuteEnd) {
			continue
		}

		if c.DryRun {
			fmt.Printf("[DryRun] %s: %s\n", title, body)
			sent++
			continue
		}
		if err := ctx.Deliverer.Deliver(ctx.Context(), title, body); err != nil {
			// Keep checking other visits
			logger.Warn("Failed to send notification", "visit", v.ID, "error", err)
			fmt.Printf("Failed to send notification: %v\n", err)
			continue
		}
		sent++
	}

	if c.DryRun && sent == 0 {
		fmt.Println("No reminders due.")
	}
	return nil
}

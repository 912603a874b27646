package system

import (
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	if ctx.Config.Notifications.Enabled {
		if _, err := ctx.ScheduleUpcoming(ctx.Context(), time.Now()); err != nil {
			logger.Warn("Failed to schedule reminders", "error", err)
		}
		ctx.Reminders.Start()
		defer ctx.Reminders.Stop()
	}

	return tui.Run(ctx.Context(), ctx.NewCoordinator, tui.Options{
		DefaultLeadMinutes: ctx.Config.Notifications.DefaultLeadMinutes,
	})
}

package visits

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/tui"
)

type VisitEditCmd struct {
	ID         string `arg:"" help:"Visit ID to edit."`
	Title      string `help:"New title."`
	VisitFlags `embed:""`
}

func (c *VisitEditCmd) Run(ctx *cli.Context) error {
	coord := ctx.NewCoordinator()
	defer coord.Close()

	v, err := findVisit(ctx, coord, c.ID)
	if err != nil {
		return err
	}

	fm := tui.NewVisitFormModel(&v, ctx.Location, time.Now(), ctx.Config.Notifications.DefaultLeadMinutes)
	if c.Title == "" && c.empty() {
		if err := runForm(fm, ctx.Location); err != nil {
			return err
		}
	} else {
		if c.Title != "" {
			fm.Title = c.Title
		}
		if err := c.overlay(fm); err != nil {
			return err
		}
	}

	if err := fm.Apply(&v, ctx.Location); err != nil {
		return fmt.Errorf("invalid visit: %w", err)
	}
	if snap := coord.Update(ctx.Context(), v); !snap.OK() {
		return fmt.Errorf("failed to update visit: %s", snap.Message)
	}

	fmt.Printf("Updated visit: %s (ID: %s)\n", v.Title, v.ID)
	return nil
}

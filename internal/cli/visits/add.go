package visits

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/tui"
)

type VisitAddCmd struct {
	Title      string `arg:"" optional:"" help:"Visit title. Opens the form when omitted."`
	VisitFlags `embed:""`
}

func (c *VisitAddCmd) Run(ctx *cli.Context) error {
	fm := tui.NewVisitFormModel(nil, ctx.Location, time.Now(), ctx.Config.Notifications.DefaultLeadMinutes)
	if err := c.overlay(fm); err != nil {
		return err
	}

	if c.Title == "" {
		if err := runForm(fm, ctx.Location); err != nil {
			return err
		}
	} else {
		fm.Title = c.Title
	}

	v := models.NewVisit("", time.Now(), time.Now(), models.VisitTypeGeneral)
	if err := fm.Apply(&v, ctx.Location); err != nil {
		return fmt.Errorf("invalid visit: %w", err)
	}

	coord := ctx.NewCoordinator()
	defer coord.Close()

	if snap := coord.Create(ctx.Context(), v); !snap.OK() {
		return fmt.Errorf("failed to add visit: %s", snap.Message)
	}

	fmt.Printf("Added visit: %s (ID: %s)\n", v.Title, v.ID)
	return nil
}

package visits

import (
	"fmt"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
)

type VisitShowCmd struct {
	ID string `arg:"" help:"Visit ID to show."`
}

func (c *VisitShowCmd) Run(ctx *cli.Context) error {
	coord := ctx.NewCoordinator()
	defer coord.Close()

	v, err := findVisit(ctx, coord, c.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", v.Title)
	fmt.Printf("  ID:       %s\n", v.ID)
	fmt.Printf("  Type:     %s\n", v.Type)
	fmt.Printf("  Start:    %s\n", v.Start.In(ctx.Location).Format(constants.DateTimeFormat))
	fmt.Printf("  End:      %s\n", v.End.In(ctx.Location).Format(constants.DateTimeFormat))
	if v.Location != "" {
		fmt.Printf("  Location: %s\n", v.Location)
	}
	if v.ReminderMinutes != nil {
		fmt.Printf("  Reminder: %d min before\n", *v.ReminderMinutes)
	}
	if v.Recurrence != nil {
		fmt.Printf("  Repeats:  %s\n", v.Recurrence)
	}
	if v.ExternalCalendarID != "" {
		fmt.Printf("  Calendar: %s\n", v.ExternalCalendarID)
	}
	if v.Notes != "" {
		fmt.Printf("  Notes:    %s\n", v.Notes)
	}
	return nil
}

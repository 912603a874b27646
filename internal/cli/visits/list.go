package visits

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/utils"
)

type VisitListCmd struct {
	From    string `help:"First day to list (YYYY-MM-DD). Defaults to the start of this month."`
	To      string `help:"Last day to list (YYYY-MM-DD). Defaults to the end of the month of --from."`
	ShowIDs bool   `help:"Show visit IDs." name:"show-ids"`
}

func (c *VisitListCmd) rangeIn(loc *time.Location, now time.Time) (models.DateRange, error) {
	start := utils.StartOfMonth(now, loc)
	if c.From != "" {
		d, err := utils.ParseDateInLocation(c.From, loc)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = d
	}
	end := utils.AddMonths(utils.StartOfMonth(start, loc), 1, loc)
	if c.To != "" {
		d, err := utils.ParseDateInLocation(c.To, loc)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = d.AddDate(0, 0, 1)
	}
	return models.NewDateRange(start, end)
}

func (c *VisitListCmd) Run(ctx *cli.Context) error {
	r, err := c.rangeIn(ctx.Location, time.Now())
	if err != nil {
		return err
	}

	visits, err := ctx.Repository.List(ctx.Context(), r)
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}
	if len(visits) == 0 {
		fmt.Printf("No visits between %s\n", r)
		return nil
	}

	fmt.Printf("Visits (%s):\n", r)
	for _, v := range visits {
		line := cli.FormatVisitLine(v, ctx.Location)
		if c.ShowIDs {
			line += fmt.Sprintf(" (ID: %s)", v.ID)
		}
		fmt.Printf("  %s\n", line)
	}
	return nil
}

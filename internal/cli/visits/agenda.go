package visits

import (
	"fmt"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
)

// AgendaCmd prints one month of visits grouped by day.
type AgendaCmd struct {
	Offset int `short:"o" help:"Months to move from the current month (negative for past months)."`
}

func (c *AgendaCmd) Run(ctx *cli.Context) error {
	coord := ctx.NewCoordinator()
	defer coord.Close()

	snap := coord.Load(ctx.Context())
	step := coord.GoToNextMonth
	if c.Offset < 0 {
		step = coord.GoToPreviousMonth
	}
	for i := 0; i < abs(c.Offset) && snap.OK(); i++ {
		snap = step(ctx.Context())
	}
	if !snap.OK() {
		return fmt.Errorf("%s", snap.Message)
	}

	printAgenda(coord)
	return nil
}

func printAgenda(coord *agenda.Coordinator) {
	loc := coord.Location()
	idx := coord.DayIndex()
	month := coord.CurrentMonth()
	fmt.Println(month.Format(constants.MonthFormat))

	shown := 0
	for _, day := range idx.Days() {
		if day.Year() != month.Year() || day.Month() != month.Month() {
			continue
		}
		shown++
		fmt.Printf("\n%s\n", day.In(loc).Format("Mon Jan 2"))
		for _, v := range idx[day] {
			fmt.Printf("  %s-%s  %s", v.Start.In(loc).Format(constants.TimeFormat), v.End.In(loc).Format(constants.TimeFormat), v.Title)
			if v.Location != "" {
				fmt.Printf(" @ %s", v.Location)
			}
			fmt.Println()
		}
	}
	if shown == 0 {
		fmt.Println("  No visits this month.")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

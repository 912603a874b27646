package visits

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/justdad/internal/cli"
)

type VisitDeleteCmd struct {
	ID  string `arg:"" help:"Visit ID to delete."`
	Yes bool   `short:"y" help:"Skip the confirmation prompt."`
}

var confirm = func(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %q?", title)).
		Affirmative("Delete").
		Negative("Keep").
		Value(&ok).
		Run()
	return ok, err
}

func (c *VisitDeleteCmd) Run(ctx *cli.Context) error {
	coord := ctx.NewCoordinator()
	defer coord.Close()

	// Check if visit exists first
	v, err := findVisit(ctx, coord, c.ID)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirm(v.Title)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	if snap := coord.Delete(ctx.Context(), c.ID); !snap.OK() {
		return fmt.Errorf("failed to delete visit: %s", snap.Message)
	}

	fmt.Printf("Deleted visit: %s (ID: %s)\n", v.Title, c.ID)
	return nil
}

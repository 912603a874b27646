package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
	"github.com/julianstephens/justdad/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Collapse duplicated visits into a single copy."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	fmt.Println("Validating visits...")
	visits, err := ctx.Repository.List(ctx.Context(), models.WindowAround(time.Now(), constants.LoadWindowYears))
	if err != nil {
		return fmt.Errorf("failed to load visits: %w", err)
	}

	result := validation.New(ctx.Location).ValidateVisits(visits)
	fmt.Println()
	fmt.Println(result.FormatReport())

	if !cmd.Fix || !result.HasConflicts() {
		return nil
	}

	extra, actions := validation.DuplicatesToRemove(result)
	if len(actions) == 0 {
		fmt.Println("Nothing to fix automatically.")
		return nil
	}

	for _, action := range actions {
		fmt.Printf("→ %s\n", action.Action)
	}
	for id := range extra {
		if err := collapse(ctx, id, visits); err != nil {
			return fmt.Errorf("failed to fix visit %s: %w", id, err)
		}
	}
	fmt.Printf("\n✓ Fixed %d duplicated visit(s)\n", len(extra))
	return nil
}

// collapse deletes every copy of id and recreates the first one.
func collapse(ctx *cli.Context, id string, visits []models.Visit) error {
	var keep *models.Visit
	for i := range visits {
		if visits[i].ID == id {
			keep = &visits[i]
			break
		}
	}
	if keep == nil {
		return storage.ErrVisitNotFound
	}

	for {
		err := ctx.Repository.Delete(ctx.Context(), id)
		if errors.Is(err, storage.ErrVisitNotFound) {
			break
		}
		if err != nil {
			return err
		}
	}
	_, err := ctx.Repository.Create(ctx.Context(), *keep)
	return err
}

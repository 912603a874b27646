package system

import (
	"fmt"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/migration"
)

// migratable is implemented by the SQL record stores.
type migratable interface {
	Runner() (*migration.Runner, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, ok := ctx.Records.(migratable)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	runner, err := store.Runner()
	if err != nil {
		return err
	}

	count, err := runner.ApplyMigrations(ctx.Context(), func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}

	return nil
}

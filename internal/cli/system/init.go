package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source store (database path, .json file or connection string) to migrate visits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if _, ok := storage.IsSQLite(ctx.Records); !ok {
			return fmt.Errorf("--force is only supported for SQLite storage")
		}
		dbPath := ctx.Records.GetConfigPath()
		// Don't delete if it's the source (user error protection)
		if c.Source != "" {
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to prevent file locking issues
			if err := ctx.Records.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Records.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized justdad storage at: %s\n", ctx.Records.GetConfigPath())
	if ctx.ConfigPath != "" {
		fmt.Printf("Configuration: %s\n", ctx.ConfigPath)
	}

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		n, err := c.migrateData(ctx, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("    Migrated %d visits\n", n)
		fmt.Println("Migration completed successfully!")
	}

	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context, source string) (int, error) {
	sourceStore, err := storage.Open(source)
	if err != nil {
		return 0, err
	}
	if err := sourceStore.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source store: %w", err)
	}
	defer sourceStore.Close()

	fmt.Println("  Migrating visits...")
	visits, err := sourceStore.FetchAll(ctx.Context())
	if err != nil {
		return 0, fmt.Errorf("failed to get visits from source: %w", err)
	}
	for _, v := range visits {
		if err := ctx.Records.Save(ctx.Context(), v); err != nil {
			return 0, fmt.Errorf("failed to save visit %s: %w", v.ID, err)
		}
	}
	return len(visits), nil
}

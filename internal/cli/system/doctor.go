package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/backup"
	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
	"github.com/julianstephens/justdad/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsStore checks are skipped when the store is unreachable.
	needsStore bool
	// warnOnly checks never fail the run.
	warnOnly bool
	fn       func(ctx *cli.Context) error
}

var doctorChecks = []check{
	{name: "Configuration", fn: checkConfig},
	{name: "Schema version", needsStore: true, fn: checkSchemaVersion},
	{name: "Migrations complete", needsStore: true, fn: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, fn: checkBackupsPresent},
	{name: "Data validation", needsStore: true, fn: checkValidation},
	{name: "Timestamp integrity", needsStore: true, fn: checkTimestampIntegrity},
	{name: "Calendar access", warnOnly: true, fn: checkCalendar},
	{name: "Clock/timezone", fn: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := true

	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		storeReachable = false
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
	}

	for _, c := range doctorChecks {
		if c.needsStore && !storeReachable {
			fmt.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.fn(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Load(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	if sqliteStore, ok := storage.IsSQLite(ctx.Records); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkConfig(ctx *cli.Context) error {
	return ctx.Config.Validate()
}

func checkSchemaVersion(ctx *cli.Context) error {
	store, ok := ctx.Records.(migratable)
	if !ok {
		// JSON and memory stores have no schema
		return nil
	}
	runner, err := store.Runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion(ctx.Context())
}

func checkMigrationsComplete(ctx *cli.Context) error {
	store, ok := ctx.Records.(migratable)
	if !ok {
		return nil
	}
	runner, err := store.Runner()
	if err != nil {
		return err
	}
	pending, err := runner.Pending(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("%d migration(s) pending, run 'justdad migrate'", pending)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := storage.IsSQLite(ctx.Records); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Records.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'justdad backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	visits, err := ctx.Durable.All(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to get visits: %w", err)
	}

	result := validation.New(ctx.Location).ValidateVisits(visits)
	broken := result.Count(constants.ConflictInvalidTimeRange) +
		result.Count(constants.ConflictDuplicateVisitID) +
		result.Count(constants.ConflictEmptyTitle)
	if broken > 0 {
		return fmt.Errorf("%d stored visit(s) are invalid, run 'justdad validate' for details", broken)
	}
	return nil
}

func checkTimestampIntegrity(ctx *cli.Context) error {
	sqliteStore, ok := storage.IsSQLite(ctx.Records)
	if !ok {
		return nil
	}
	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var corrupted int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM visits
		WHERE created_at = '' OR updated_at = '' OR start_at = '' OR end_at = ''
	`).Scan(&corrupted)
	if err != nil {
		return fmt.Errorf("failed to check visit timestamps: %w", err)
	}
	if corrupted > 0 {
		return fmt.Errorf("found %d visits with corrupted timestamps", corrupted)
	}
	return nil
}

func checkCalendar(ctx *cli.Context) error {
	if ctx.Calendar == nil {
		return fmt.Errorf("device calendar disabled, visits are stored locally only")
	}
	status := ctx.Calendar.AuthorizationStatus()
	if status != calendar.Authorized {
		return fmt.Errorf("calendar access %s, visits are stored locally (run 'justdad calendar authorize')", status)
	}
	r := models.WindowAround(time.Now(), constants.LoadWindowYears)
	if _, err := ctx.Calendar.EventsMatching(ctx.Context(), r); err != nil {
		return fmt.Errorf("calendar %s unreadable: %w", ctx.Calendar.Path(), err)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Location == nil {
		return fmt.Errorf("timezone %q not loaded", ctx.Config.Timezone)
	}
	return nil
}

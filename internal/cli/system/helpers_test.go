package system

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/config"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/reminder"
)

// deliveries records reminders instead of posting them to the tray.
type deliveries struct {
	titles []string
}

func (d *deliveries) Deliver(_ context.Context, title, _ string) error {
	d.titles = append(d.titles, title)
	return nil
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Store = filepath.Join(dir, "test.db")
	cfg.Timezone = "UTC"
	cfg.Calendar.Path = filepath.Join(dir, "calendar.ics")
	return cfg
}

func setupTestContext(t *testing.T, cfg *config.Config, prompter calendar.AccessPrompter) (*cli.Context, *deliveries) {
	t.Helper()
	d := &deliveries{}
	ctx, err := cli.NewContext(cfg, cli.Options{
		ConfigPath: filepath.Join(filepath.Dir(cfg.Store), "config.yaml"),
		StoreDSN:   cfg.Store,
		Prompter:   prompter,
		Deliverer:  reminder.Deliverer(d),
	})
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return ctx, d
}

// setupInitializedContext returns a context whose SQLite store is initialized and loaded.
func setupInitializedContext(t *testing.T) (*cli.Context, *deliveries) {
	t.Helper()
	ctx, d := setupTestContext(t, testConfig(t.TempDir()), calendar.AlwaysDeny)
	if err := ctx.Records.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := ctx.Load(context.Background()); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	return ctx, d
}

func seedVisit(t *testing.T, ctx *cli.Context, title string, start time.Time) models.Visit {
	t.Helper()
	v := models.NewVisit(title, start, start.Add(time.Hour), models.VisitTypeGeneral)
	created, err := ctx.Repository.Create(context.Background(), v)
	if err != nil {
		t.Fatalf("failed to seed visit: %v", err)
	}
	return created
}

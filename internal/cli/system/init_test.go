package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
)

func TestInitCmd_Success(t *testing.T) {
	cfg := testConfig(t.TempDir())
	ctx, _ := setupTestContext(t, cfg, calendar.AlwaysDeny)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("init command failed: %v", err)
	}

	if _, err := os.Stat(cfg.Store); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", cfg.Store)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := setupTestContext(t, testConfig(t.TempDir()), calendar.AlwaysDeny)

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	cfg := testConfig(t.TempDir())
	ctx, _ := setupTestContext(t, cfg, calendar.AlwaysDeny)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}

	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	v := models.NewVisit("Dinner", start, start.Add(time.Hour), models.VisitTypeDinner)
	if err := ctx.Records.Save(context.Background(), v); err != nil {
		t.Fatalf("failed to save visit: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force failed: %v", err)
	}

	if _, err := os.Stat(cfg.Store); os.IsNotExist(err) {
		t.Fatalf("database file was not recreated after force")
	}
	visits, err := ctx.Records.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch visits after force: %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("expected empty store after force, got %d visits", len(visits))
	}
}

func TestInitCmd_ForceWithNonExistentDatabase(t *testing.T) {
	cfg := testConfig(t.TempDir())
	ctx, _ := setupTestContext(t, cfg, calendar.AlwaysDeny)

	if _, err := os.Stat(cfg.Store); !os.IsNotExist(err) {
		t.Fatalf("database file should not exist initially")
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init with force on non-existent database failed: %v", err)
	}
	if _, err := os.Stat(cfg.Store); os.IsNotExist(err) {
		t.Errorf("database file was not created")
	}
}

func TestInitCmd_ForceRejectsSameSource(t *testing.T) {
	cfg := testConfig(t.TempDir())
	ctx, _ := setupTestContext(t, cfg, calendar.AlwaysDeny)

	err := (&InitCmd{Force: true, Source: cfg.Store}).Run(ctx)
	if err == nil {
		t.Fatal("expected error when source equals destination")
	}
}

func TestInitCmd_MigratesFromJSON(t *testing.T) {
	dir := t.TempDir()
	source := storage.NewJSONStore(filepath.Join(dir, "old.json"))
	if err := source.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	start := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	for _, title := range []string{"Park", "Zoo"} {
		v := models.NewVisit(title, start, start.Add(2*time.Hour), models.VisitTypeActivity)
		if err := source.Save(context.Background(), v); err != nil {
			t.Fatalf("failed to seed source: %v", err)
		}
	}
	if err := source.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	ctx, _ := setupTestContext(t, testConfig(dir), calendar.AlwaysDeny)
	if err := (&InitCmd{Source: filepath.Join(dir, "old.json")}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	visits, err := ctx.Records.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch migrated visits: %v", err)
	}
	if len(visits) != 2 {
		t.Errorf("migrated %d visits, want 2", len(visits))
	}
}

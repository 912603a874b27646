package settings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/config"
)

func setupTestContext(t *testing.T) *cli.Context {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Store = "memory://"
	cfg.Timezone = "UTC"
	cfg.Calendar.Enabled = false

	ctx, err := cli.NewContext(cfg, cli.Options{
		ConfigPath: filepath.Join(dir, "config.yaml"),
		StoreDSN:   cfg.Store,
	})
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	return ctx
}

func TestSettingsCmd_List(t *testing.T) {
	ctx := setupTestContext(t)

	cmd := &SettingsCmd{
		List: true,
	}

	if err := cmd.Run(ctx); err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_UpdatePersists(t *testing.T) {
	ctx := setupTestContext(t)

	lead := 45
	tz := "America/Chicago"
	delay := 2 * time.Second
	off := false
	cmd := &SettingsCmd{
		DefaultLeadMinutes:   &lead,
		Timezone:             &tz,
		RetryBaseDelay:       &delay,
		NotificationsEnabled: &off,
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	saved, err := config.Load(ctx.ConfigPath)
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if saved.Notifications.DefaultLeadMinutes != 45 {
		t.Errorf("DefaultLeadMinutes = %d, want 45", saved.Notifications.DefaultLeadMinutes)
	}
	if saved.Timezone != tz {
		t.Errorf("Timezone = %q, want %q", saved.Timezone, tz)
	}
	if saved.Retry.BaseDelay != delay {
		t.Errorf("BaseDelay = %s, want %s", saved.Retry.BaseDelay, delay)
	}
	if saved.Notifications.Enabled {
		t.Error("notifications should be disabled")
	}
	if ctx.Config.Timezone != tz {
		t.Error("in-memory config not updated")
	}
}

func TestSettingsCmd_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() *SettingsCmd
	}{
		{name: "timezone", cmd: func() *SettingsCmd { s := "Mars/Olympus"; return &SettingsCmd{Timezone: &s} }},
		{name: "cron", cmd: func() *SettingsCmd { s := "every tuesday"; return &SettingsCmd{SyncCron: &s} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestContext(t)
			if err := tt.cmd().Run(ctx); err == nil {
				t.Error("expected error")
			}
			if ctx.Config.Timezone != "UTC" {
				t.Error("in-memory config changed on failure")
			}
		})
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	ctx := setupTestContext(t)
	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Errorf("no-op settings failed: %v", err)
	}
}

package settings

import (
	"fmt"
	"time"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/config"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone             *string        `help:"IANA timezone used for day boundaries."`
	Language             *string        `help:"Message language (en|es)."`
	CalendarEnabled      *bool          `help:"Enable or disable the device calendar."`
	CalendarPath         *string        `help:"Path of the calendar file."`
	NotificationsEnabled *bool          `help:"Enable or disable visit reminders."`
	DefaultLeadMinutes   *int           `help:"Default reminder lead time for new visits."`
	SyncCron             *string        `help:"Cron schedule for the watch daemon."`
	MaxRetries           *int           `help:"Automatic retries after a failed agenda operation."`
	RetryBaseDelay       *time.Duration `help:"Delay before the first automatic retry."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings := *ctx.Config

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Config File:           %s\n", ctx.ConfigPath)
		fmt.Printf("  Store:                 %s (%s)\n", settings.Store, ctx.StoreSource)
		fmt.Printf("  Timezone:              %s\n", settings.Timezone)
		fmt.Printf("  Language:              %s\n", settings.Language)
		fmt.Println("\nCalendar Settings:")
		fmt.Printf("  Calendar Enabled:      %v\n", settings.Calendar.Enabled)
		fmt.Printf("  Calendar Path:         %s\n", settings.Calendar.Path)
		fmt.Println("\nNotification Settings:")
		fmt.Printf("  Notifications Enabled: %v\n", settings.Notifications.Enabled)
		fmt.Printf("  Default Lead:          %d min\n", settings.Notifications.DefaultLeadMinutes)
		fmt.Printf("  Sync Schedule:         %s\n", settings.Sync.Cron)
		fmt.Println("\nRetry Settings:")
		fmt.Printf("  Max Retries:           %d\n", settings.Retry.MaxRetries)
		fmt.Printf("  Base Delay:            %s\n", settings.Retry.BaseDelay)
		return nil
	}

	updated := false
	set := func(apply func()) {
		apply()
		updated = true
	}
	if c.Timezone != nil {
		set(func() { settings.Timezone = *c.Timezone })
	}
	if c.Language != nil {
		set(func() { settings.Language = *c.Language })
	}
	if c.CalendarEnabled != nil {
		set(func() { settings.Calendar.Enabled = *c.CalendarEnabled })
	}
	if c.CalendarPath != nil {
		set(func() { settings.Calendar.Path = *c.CalendarPath })
	}
	if c.NotificationsEnabled != nil {
		set(func() { settings.Notifications.Enabled = *c.NotificationsEnabled })
	}
	if c.DefaultLeadMinutes != nil {
		set(func() { settings.Notifications.DefaultLeadMinutes = *c.DefaultLeadMinutes })
	}
	if c.SyncCron != nil {
		set(func() { settings.Sync.Cron = *c.SyncCron })
	}
	if c.MaxRetries != nil {
		set(func() { settings.Retry.MaxRetries = *c.MaxRetries })
	}
	if c.RetryBaseDelay != nil {
		set(func() { settings.Retry.BaseDelay = *c.RetryBaseDelay })
	}

	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.Save(ctx.ConfigPath, &settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	*ctx.Config = settings
	fmt.Println("Settings updated successfully. Restart the TUI or watch daemon to apply them.")
	return nil
}

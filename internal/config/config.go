package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/utils"
)

// CalendarConfig locates the device calendar file.
type CalendarConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotificationsConfig controls visit reminders.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
	// DefaultLeadMinutes is used by "visit add" when no --remind flag is given.
	// Zero means no reminder.
	DefaultLeadMinutes int `yaml:"default_lead_minutes"`
}

// SyncConfig controls the watch daemon.
type SyncConfig struct {
	// Cron is a cron spec or descriptor (e.g. "*/15 * * * *", "@every 15m").
	Cron string `yaml:"cron"`
}

// RetryConfig controls the agenda's automatic retries.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

type Config struct {
	// Store is a SQLite path, a .json path, memory:// or a PostgreSQL connection string without a password.
	Store         string              `yaml:"store"`
	Timezone      string              `yaml:"timezone"`
	Language      string              `yaml:"language"`
	Calendar      CalendarConfig      `yaml:"calendar"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Sync          SyncConfig          `yaml:"sync"`
	Retry         RetryConfig         `yaml:"retry"`
	Debug         bool                `yaml:"debug"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Store:    constants.DefaultStorePath,
		Timezone: constants.DefaultTimezone,
		Language: "en",
		Calendar: CalendarConfig{
			Enabled: true,
			Path:    filepath.Join(constants.DefaultConfigDir, constants.DefaultCalendar),
		},
		Notifications: NotificationsConfig{
			Enabled:            true,
			DefaultLeadMinutes: constants.DefaultLeadMinutes,
		},
		Sync: SyncConfig{Cron: constants.DefaultSyncSchedule},
		Retry: RetryConfig{
			MaxRetries: constants.MaxRetries,
			BaseDelay:  constants.DefaultRetryBaseDelay,
		},
	}
}

// Normalize fills zero values with defaults so older files keep working.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Store == "" {
		c.Store = d.Store
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	switch c.Language {
	case "en", "es":
	default:
		c.Language = d.Language
	}
	if c.Calendar.Path == "" {
		c.Calendar.Path = d.Calendar.Path
	}
	if c.Notifications.DefaultLeadMinutes < 0 {
		c.Notifications.DefaultLeadMinutes = 0
	}
	if c.Sync.Cron == "" {
		c.Sync.Cron = d.Sync.Cron
	}
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = d.Retry.BaseDelay
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Sync.Cron); err != nil {
		return fmt.Errorf("invalid sync cron %q: %w", c.Sync.Cron, err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// CalendarPath returns the calendar file path with ~ expanded.
func (c *Config) CalendarPath() (string, error) {
	return utils.ExpandPath(c.Calendar.Path)
}

// DefaultPath returns ~/.config/justdad/config.yaml, expanded.
func DefaultPath() (string, error) {
	return utils.ExpandPath(filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile))
}

// Load reads the YAML file at path. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".justdad-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

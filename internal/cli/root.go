package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/backup"
	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/config"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/keyring"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/notifier"
	"github.com/julianstephens/justdad/internal/reminder"
	"github.com/julianstephens/justdad/internal/repository"
	"github.com/julianstephens/justdad/internal/storage"
)

// Context carries everything a command needs. Calendar and Adapter are nil
// when the device calendar is disabled in the config.
type Context struct {
	Config      *config.Config
	ConfigPath  string
	StoreDSN    string
	StoreSource keyring.Source
	Location    *time.Location

	Records    storage.RecordStore
	Durable    *storage.DurableStore
	Calendar   *calendar.ICSCalendar
	Adapter    *calendar.Adapter
	Reminders  *reminder.CronScheduler
	Deliverer  reminder.Deliverer
	Repository *repository.Repository

	// Base is cancelled on SIGINT/SIGTERM.
	Base context.Context
}

// Context returns the command's base context.
func (c *Context) Context() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

// Options are the pieces of the command line that influence wiring.
type Options struct {
	ConfigPath  string
	StoreDSN    string
	StoreSource keyring.Source
	Prompter    calendar.AccessPrompter
	Deliverer   reminder.Deliverer
	// Now overrides the reminder scheduler's clock.
	Now func() time.Time
}

// NewContext wires the stores, the calendar, the reminder scheduler and the
// repository from cfg. Nothing is opened or loaded yet.
func NewContext(cfg *config.Config, opts Options) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	open := storage.Open
	if opts.StoreSource == keyring.SourceKeyring || opts.StoreSource == keyring.SourceEnv {
		open = storage.OpenTrusted
	}
	records, err := open(opts.StoreDSN)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Config:      cfg,
		ConfigPath:  opts.ConfigPath,
		StoreDSN:    opts.StoreDSN,
		StoreSource: opts.StoreSource,
		Location:    loc,
		Records:     records,
		Durable:     storage.NewDurableStore(records),
	}

	deliverer := opts.Deliverer
	if deliverer == nil {
		deliverer = notifier.New()
	}
	c.Deliverer = deliverer
	c.Reminders = reminder.NewCronScheduler(deliverer, loc, reminder.WithClock(opts.Now))

	var reminders reminder.Scheduler = reminder.NopScheduler{}
	if cfg.Notifications.Enabled {
		reminders = c.Reminders
	}

	if cfg.Calendar.Enabled {
		path, err := cfg.CalendarPath()
		if err != nil {
			return nil, err
		}
		prompter := opts.Prompter
		if prompter == nil {
			prompter = calendar.AlwaysDeny
		}
		c.Calendar = calendar.NewICSCalendar(path, prompter)
		c.Adapter = calendar.NewAdapter(c.Calendar, loc)
		c.Repository = repository.New(c.Calendar, c.Adapter, c.Durable, reminders)
	} else {
		c.Repository = repository.New(nil, nil, c.Durable, reminders)
	}

	return c, nil
}

// Load opens the record store and hydrates the durable collection.
func (c *Context) Load(ctx context.Context) error {
	if err := c.Records.Load(); err != nil {
		return err
	}
	return c.Durable.Load(ctx)
}

// Close releases the record store.
func (c *Context) Close() error {
	return c.Records.Close()
}

// NewCoordinator builds an agenda coordinator over the repository using the
// configured retry policy and language.
func (c *Context) NewCoordinator(opts ...agenda.Option) *agenda.Coordinator {
	base := []agenda.Option{
		agenda.WithLocation(c.Location),
		agenda.WithRetry(c.Config.Retry.MaxRetries, c.Config.Retry.BaseDelay),
		agenda.WithLanguage(c.Config.Language),
	}
	return agenda.New(c.Repository, append(base, opts...)...)
}

// ScheduleUpcoming registers a reminder for every visit in the load window
// whose reminder has not fired yet and cancels pending reminders of visits
// that are gone. It returns how many reminders are pending afterwards.
func (c *Context) ScheduleUpcoming(ctx context.Context, now time.Time) (int, error) {
	visits, err := c.Repository.List(ctx, models.WindowAround(now, constants.LoadWindowYears))
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(visits))
	for _, v := range visits {
		fireDate, title, body, ok := reminder.BuildReminder(v)
		if !ok || !fireDate.After(now) {
			continue
		}
		if err := c.Reminders.Schedule(ctx, v.ID, fireDate, title, body); err != nil {
			logger.Warn("Failed to schedule reminder", "visit", v.ID, "error", err)
			continue
		}
		seen[v.ID] = true
	}
	for _, p := range c.Reminders.Pending() {
		if !seen[p.VisitID] {
			_ = c.Reminders.Cancel(ctx, p.VisitID)
		}
	}
	return len(c.Reminders.Pending()), nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := storage.IsSQLite(c.Records); !ok {
		return
	}
	mgr := backup.NewManager(c.Records.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseWeekdays parses a comma-separated list of weekdays into 1 = Sunday
// through 7 = Saturday.
func ParseWeekdays(s string) ([]int, error) {
	dayMap := map[string]int{
		"sun":       1,
		"sunday":    1,
		"mon":       2,
		"monday":    2,
		"tue":       3,
		"tuesday":   3,
		"wed":       4,
		"wednesday": 4,
		"thu":       5,
		"thursday":  5,
		"fri":       6,
		"friday":    6,
		"sat":       7,
		"saturday":  7,
	}

	var weekdays []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 1 || num > 7 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		weekdays = append(weekdays, num)
	}
	return weekdays, nil
}

// ParseRecurrence builds a recurrence rule from command line flags. An empty
// or "none" frequency yields nil.
func ParseRecurrence(freq string, interval int, weekdays string) (*models.RecurrenceRule, error) {
	f, err := models.ParseFrequency(freq)
	if err != nil {
		return nil, err
	}
	if f == models.FrequencyNone {
		return nil, nil
	}
	if interval < 1 {
		interval = 1
	}
	rule := models.RecurrenceRule{Frequency: f, Interval: interval}
	if weekdays != "" {
		if rule.Weekdays, err = ParseWeekdays(weekdays); err != nil {
			return nil, err
		}
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// FormatVisitLine renders a visit as a single list line.
func FormatVisitLine(v models.Visit, loc *time.Location) string {
	start := v.Start.In(loc)
	end := v.End.In(loc)
	line := fmt.Sprintf("%s %s-%s  %-9s  %s", start.Format(constants.DateFormat), start.Format(constants.TimeFormat),
		end.Format(constants.TimeFormat), v.Type, v.Title)
	if v.Location != "" {
		line += " @ " + v.Location
	}
	if v.IsRecurring {
		line += " ↻"
	}
	return line
}

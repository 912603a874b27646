package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
)

// ICSCalendar is a device calendar backed by a single .ics file. The grant
// decision lives next to it in a sidecar file so it survives restarts.
type ICSCalendar struct {
	mu       sync.Mutex
	path     string
	prompter AccessPrompter
}

func NewICSCalendar(path string, prompter AccessPrompter) *ICSCalendar {
	if prompter == nil {
		prompter = AlwaysDeny
	}
	return &ICSCalendar{path: path, prompter: prompter}
}

func (c *ICSCalendar) Path() string {
	return c.path
}

func (c *ICSCalendar) accessPath() string {
	return c.path + constants.CalendarAccessExt
}

func (c *ICSCalendar) AuthorizationStatus() AuthorizationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *ICSCalendar) statusLocked() AuthorizationStatus {
	data, err := os.ReadFile(c.accessPath())
	if err != nil {
		return NotDetermined
	}
	switch strings.TrimSpace(string(data)) {
	case constants.CalendarGranted:
		return Authorized
	case constants.CalendarDenied:
		return Denied
	default:
		return NotDetermined
	}
}

// RequestAccess prompts unless access was already granted and records the answer.
func (c *ICSCalendar) RequestAccess(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.statusLocked() == Authorized {
		return true, nil
	}
	granted, err := c.prompter.PromptAccess(ctx)
	if err != nil {
		return false, fmt.Errorf("calendar access prompt: %w", err)
	}
	value := constants.CalendarDenied
	if granted {
		value = constants.CalendarGranted
	}
	if err := c.writeAccessLocked(value); err != nil {
		return false, err
	}
	logger.Info("Calendar access decided", "granted", granted, "path", c.path)
	return granted, nil
}

// Revoke withdraws a previous grant.
func (c *ICSCalendar) Revoke() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeAccessLocked(constants.CalendarDenied)
}

func (c *ICSCalendar) writeAccessLocked(value string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create calendar directory: %w", err)
	}
	if err := os.WriteFile(c.accessPath(), []byte(value+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to record calendar access: %w", err)
	}
	return nil
}

func (c *ICSCalendar) checkAccessLocked() error {
	if c.statusLocked() != Authorized {
		return storage.ErrPermissionDenied
	}
	return nil
}

func (c *ICSCalendar) EventsMatching(ctx context.Context, r models.DateRange) ([]*ical.VEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAccessLocked(); err != nil {
		return nil, err
	}
	cal, err := c.readLocked()
	if err != nil {
		return nil, err
	}

	var out []*ical.VEvent
	for _, ev := range cal.Events() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start, err := ev.GetStartAt()
		if err != nil {
			logger.Warn("Skipping calendar event without start", "uid", ev.Id(), "error", err)
			continue
		}
		end, err := ev.GetEndAt()
		if err != nil {
			end = start
		}
		span := models.Visit{Start: start, End: end}
		if span.Overlaps(r) || occursIn(ev, start, end.Sub(start), r) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// occursIn reports whether a recurring event has an occurrence overlapping r.
func occursIn(ev *ical.VEvent, start time.Time, length time.Duration, r models.DateRange) bool {
	prop := ev.GetProperty(ical.ComponentPropertyRrule)
	if prop == nil {
		return false
	}
	opt, err := rrule.StrToROptionInLocation(prop.Value, start.Location())
	if err != nil {
		logger.Warn("Ignoring unparseable RRULE", "uid", ev.Id(), "rrule", prop.Value, "error", err)
		return false
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		logger.Warn("Ignoring invalid RRULE", "uid", ev.Id(), "rrule", prop.Value, "error", err)
		return false
	}
	return len(rule.Between(r.Start.Add(-length), r.End, true)) > 0
}

func (c *ICSCalendar) EventWithIdentifier(ctx context.Context, id string) (*ical.VEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAccessLocked(); err != nil {
		return nil, err
	}
	cal, err := c.readLocked()
	if err != nil {
		return nil, err
	}
	for _, ev := range cal.Events() {
		if ev.Id() == id {
			return ev, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
}

func (c *ICSCalendar) Save(ctx context.Context, ev *ical.VEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAccessLocked(); err != nil {
		return err
	}
	cal, err := c.readLocked()
	if err != nil {
		return err
	}
	if ev.Id() == "" {
		ev.SetProperty(ical.ComponentPropertyUniqueId, uuid.New().String())
	}
	cal.RemoveEvent(ev.Id())
	cal.AddVEvent(ev)
	return c.writeLocked(cal)
}

func (c *ICSCalendar) Remove(ctx context.Context, ev *ical.VEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkAccessLocked(); err != nil {
		return err
	}
	cal, err := c.readLocked()
	if err != nil {
		return err
	}
	before := len(cal.Events())
	cal.RemoveEvent(ev.Id())
	if len(cal.Events()) == before {
		return fmt.Errorf("%w: %s", ErrEventNotFound, ev.Id())
	}
	return c.writeLocked(cal)
}

func (c *ICSCalendar) readLocked() (*ical.Calendar, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return newCalendar(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar: %w", err)
	}
	defer f.Close()

	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar %s: %w", c.path, err)
	}
	return cal, nil
}

// writeLocked replaces the calendar file atomically.
func (c *ICSCalendar) writeLocked(cal *ical.Calendar) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create calendar directory: %w", err)
	}
	tmp := c.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := cal.SerializeTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to serialize calendar: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace calendar: %w", err)
	}
	return nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendarFor(constants.AppName)
	cal.SetProductId(constants.CalendarProductID)
	return cal
}

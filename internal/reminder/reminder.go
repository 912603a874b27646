// Package reminder schedules local notifications ahead of visits.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
)

// Scheduler registers and cancels reminders keyed by visit ID. Callers treat
// failures as best effort.
type Scheduler interface {
	Schedule(ctx context.Context, visitID string, fireDate time.Time, title, body string) error
	Cancel(ctx context.Context, visitID string) error
}

// Deliverer shows a reminder to the user.
type Deliverer interface {
	Deliver(ctx context.Context, title, body string) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, title, body string) error

func (f DelivererFunc) Deliver(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}

// BuildReminder derives the reminder for a visit. ok is false when the visit
// has no lead time set.
func BuildReminder(v models.Visit) (fireDate time.Time, title, body string, ok bool) {
	fireDate, ok = v.ReminderTime()
	if !ok {
		return time.Time{}, "", "", false
	}
	title = v.Title
	lead := *v.ReminderMinutes
	switch {
	case lead == 0:
		body = "Starting now"
	case lead == 1:
		body = "Starts in 1 minute"
	default:
		body = fmt.Sprintf("Starts in %d minutes", lead)
	}
	if v.Location != "" {
		body += " at " + v.Location
	}
	return fireDate, title, body, true
}

// once is a cron.Schedule that fires a single time.
type once struct {
	at time.Time
}

func (o once) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

// Pending describes a reminder waiting to fire.
type Pending struct {
	VisitID  string
	FireDate time.Time
	Title    string
	Body     string
}

type entry struct {
	id cron.EntryID
	Pending
}

// CronScheduler runs reminders on a robfig/cron scheduler.
type CronScheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	deliverer Deliverer
	entries   map[string]*entry
	now       func() time.Time
}

var _ Scheduler = (*CronScheduler)(nil)

// Option configures a CronScheduler.
type Option func(*CronScheduler)

// WithClock sets the clock Schedule compares fire dates against.
func WithClock(now func() time.Time) Option {
	return func(s *CronScheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func NewCronScheduler(deliverer Deliverer, loc *time.Location, opts ...Option) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &CronScheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		deliverer: deliverer,
		entries:   make(map[string]*entry),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler; the returned context is done once running
// deliveries finish.
func (s *CronScheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Schedule replaces any reminder pending for visitID. Fire dates in the past
// are ignored.
func (s *CronScheduler) Schedule(ctx context.Context, visitID string, fireDate time.Time, title, body string) error {
	if visitID == "" {
		return fmt.Errorf("reminder requires a visit ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(visitID)
	if !fireDate.After(s.now()) {
		logger.Debug("Skipping reminder in the past", "visit", visitID, "fire_date", fireDate)
		return nil
	}

	e := &entry{Pending: Pending{VisitID: visitID, FireDate: fireDate, Title: title, Body: body}}
	e.id = s.cron.Schedule(once{at: fireDate}, cron.FuncJob(func() {
		s.fire(e)
	}))
	s.entries[visitID] = e
	logger.Debug("Reminder scheduled", "visit", visitID, "fire_date", fireDate)
	return nil
}

func (s *CronScheduler) Cancel(ctx context.Context, visitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(visitID)
	return nil
}

func (s *CronScheduler) removeLocked(visitID string) {
	if e, ok := s.entries[visitID]; ok {
		s.cron.Remove(e.id)
		delete(s.entries, visitID)
	}
}

// fire delivers e unless it was replaced or cancelled in the meantime.
func (s *CronScheduler) fire(e *entry) {
	s.mu.Lock()
	if s.entries[e.VisitID] != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, e.VisitID)
	s.cron.Remove(e.id)
	s.mu.Unlock()

	p := e.Pending

	if err := s.deliverer.Deliver(context.Background(), p.Title, p.Body); err != nil {
		logger.Warn("Reminder delivery failed", "visit", p.VisitID, "error", err)
		return
	}
	logger.Info("Reminder delivered", "visit", p.VisitID)
}

// Pending lists reminders that have not fired yet, soonest first.
func (s *CronScheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pending, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Pending)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FireDate.Before(out[j].FireDate)
	})
	return out
}

// NopScheduler is used when notifications are disabled.
type NopScheduler struct{}

func (NopScheduler) Schedule(context.Context, string, time.Time, string, string) error { return nil }
func (NopScheduler) Cancel(context.Context, string) error                              { return nil }

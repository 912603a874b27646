// Package agenda owns the day-indexed view of visits that the TUI and the
// agenda command render.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/justdad/internal/constants"
	apperrors "github.com/julianstephens/justdad/internal/errors"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
	"github.com/julianstephens/justdad/internal/utils"
)

// ErrClosed is published when an operation is submitted after Close.
var ErrClosed = errors.New("agenda closed")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

type Kind string

const (
	KindNone   Kind = ""
	KindLoad   Kind = "load"
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindSync   Kind = "sync"
)

// Snapshot is the observable operation state.
type Snapshot struct {
	Phase        Phase
	Kind         Kind
	Err          error
	Message      string
	RetryCount   int
	Loading      bool
	CurrentMonth time.Time
	Visits       int
}

// OK reports whether the last operation finished without error.
func (s Snapshot) OK() bool {
	return s.Err == nil && s.Phase != PhaseError
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Option func(*Coordinator)

func WithLocation(loc *time.Location) Option {
	return func(c *Coordinator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Coordinator) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sleep = s
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithObserver registers fn to receive every state transition. fn runs on
// the worker goroutine and must not call back into the coordinator.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, fn) }
}

func WithLanguage(lang string) Option {
	return func(c *Coordinator) { c.lang = lang }
}

type job struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Coordinator serializes every operation on a single worker goroutine and
// keeps the day index in step with the repository.
type Coordinator struct {
	repo storage.VisitStore

	loc        *time.Location
	maxRetries int
	baseDelay  time.Duration
	sleep      Sleeper
	now        func() time.Time
	lang       string
	observers  []func(Snapshot)

	jobs      chan job
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// mu guards the fields below; only the worker writes them.
	mu           sync.RWMutex
	phase        Phase
	kind         Kind
	err          error
	retryCount   int
	currentMonth time.Time
	visits       []models.Visit
	index        DayIndex

	// Worker-only: how to repeat the last load or sync.
	lastKind   Kind
	lastReload func(ctx context.Context) error
}

func New(repo storage.VisitStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:       repo,
		loc:        time.Local,
		maxRetries: constants.MaxRetries,
		baseDelay:  constants.DefaultRetryBaseDelay,
		sleep:      sleepContext,
		now:        time.Now,
		lang:       "en",
		jobs:       make(chan job),
		quit:       make(chan struct{}),
		index:      make(DayIndex),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.currentMonth = utils.StartOfMonth(c.now(), c.loc)

	c.wg.Add(1)
	go c.worker()
	return c
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case j := <-c.jobs:
			j.run(j.ctx)
			close(j.done)
		}
	}
}

// Close stops the worker after the running operation finishes.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
	c.wg.Wait()
}

// submit runs fn on the worker and waits for it.
func (c *Coordinator) submit(ctx context.Context, fn func(ctx context.Context)) Snapshot {
	j := job{ctx: ctx, run: fn, done: make(chan struct{})}
	select {
	case c.jobs <- j:
	case <-c.quit:
		return c.failedSnapshot(ErrClosed)
	case <-ctx.Done():
		return c.failedSnapshot(ctx.Err())
	}
	<-j.done
	return c.Snapshot()
}

func (c *Coordinator) failedSnapshot(err error) Snapshot {
	s := c.Snapshot()
	s.Phase = PhaseError
	s.Err = err
	s.Message = apperrors.Describe(err, c.lang)
	return s
}

// perform runs body with the retry discipline. The body runs at most
// maxRetries+1 times; before retry n it waits baseDelay * 2^n.
func (c *Coordinator) perform(ctx context.Context, kind Kind, body func(ctx context.Context) error) {
	c.transition(func() {
		c.phase = PhaseLoading
		c.err = nil
		c.kind = kind
		c.retryCount = 0
	})

	for {
		err := body(ctx)
		if err == nil {
			c.transition(func() {
				c.phase = PhaseSuccess
				c.err = nil
				c.retryCount = 0
			})
			c.transition(func() { c.phase = PhaseIdle })
			return
		}

		c.transition(func() {
			c.phase = PhaseError
			c.err = err
		})
		if ctx.Err() != nil {
			return
		}

		c.mu.RLock()
		attempt := c.retryCount
		c.mu.RUnlock()
		if attempt >= c.maxRetries {
			logger.Warn("Agenda operation failed", "kind", kind, "retries", attempt, "error", err)
			return
		}

		attempt++
		delay := c.baseDelay * time.Duration(1<<attempt)
		logger.Debug("Retrying agenda operation", "kind", kind, "attempt", attempt, "delay", delay, "error", err)
		c.transition(func() { c.retryCount = attempt })

		if serr := c.sleep(ctx, delay); serr != nil {
			c.transition(func() { c.err = serr })
			return
		}
		c.transition(func() {
			c.phase = PhaseLoading
			c.err = nil
		})
	}
}

// transition applies fn under the lock and notifies observers.
func (c *Coordinator) transition(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	if len(c.observers) == 0 {
		return
	}
	s := c.Snapshot()
	for _, obs := range c.observers {
		obs(s)
	}
}

func (c *Coordinator) setVisits(visits []models.Visit) {
	index := GroupByDay(visits, c.loc)
	c.mu.Lock()
	c.index = index
	c.visits = index.Flatten()
	c.mu.Unlock()
}

func (c *Coordinator) reload(r models.DateRange) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		visits, err := c.repo.List(ctx, r)
		if err != nil {
			return err
		}
		c.setVisits(visits)
		return nil
	}
}

func (c *Coordinator) windowReload() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return c.reload(models.WindowAround(c.now(), constants.LoadWindowYears))(ctx)
	}
}

// Load fetches the visits within a year either side of now.
func (c *Coordinator) Load(ctx context.Context) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		body := c.windowReload()
		c.lastKind, c.lastReload = KindLoad, body
		c.perform(ctx, KindLoad, body)
	})
}

// Sync reloads the full window, picking up changes made elsewhere.
func (c *Coordinator) Sync(ctx context.Context) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		body := c.windowReload()
		c.lastKind, c.lastReload = KindSync, body
		c.perform(ctx, KindSync, body)
	})
}

func (c *Coordinator) GoToPreviousMonth(ctx context.Context) Snapshot {
	return c.shiftMonth(ctx, -1)
}

func (c *Coordinator) GoToNextMonth(ctx context.Context) Snapshot {
	return c.shiftMonth(ctx, 1)
}

func (c *Coordinator) shiftMonth(ctx context.Context, n int) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		c.mu.Lock()
		c.currentMonth = utils.AddMonths(c.currentMonth, n, c.loc)
		month := c.currentMonth
		c.mu.Unlock()

		body := c.reload(models.MonthRange(month, c.loc))
		c.lastKind, c.lastReload = KindLoad, body
		c.perform(ctx, KindLoad, body)
	})
}

func (c *Coordinator) Create(ctx context.Context, v models.Visit) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		c.lastKind, c.lastReload = KindCreate, nil
		c.perform(ctx, KindCreate, func(ctx context.Context) error {
			created, err := c.repo.Create(ctx, v)
			if err != nil {
				return err
			}
			c.setVisits(append(c.AllVisits(), created))
			return nil
		})
	})
}

func (c *Coordinator) Update(ctx context.Context, v models.Visit) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		c.lastKind, c.lastReload = KindUpdate, nil
		c.perform(ctx, KindUpdate, func(ctx context.Context) error {
			updated, err := c.repo.Update(ctx, v)
			if err != nil {
				return err
			}
			visits := slices.DeleteFunc(c.AllVisits(), func(existing models.Visit) bool {
				return existing.ID == updated.ID
			})
			c.setVisits(append(visits, updated))
			return nil
		})
	})
}

func (c *Coordinator) Delete(ctx context.Context, id string) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		c.lastKind, c.lastReload = KindDelete, nil
		c.perform(ctx, KindDelete, func(ctx context.Context) error {
			if err := c.repo.Delete(ctx, id); err != nil {
				return err
			}
			c.setVisits(slices.DeleteFunc(c.AllVisits(), func(v models.Visit) bool {
				return v.ID == id
			}))
			return nil
		})
	})
}

// RetryLastOperation repeats the last load or sync. Mutations are not
// replayed; a sync reload runs in their place.
func (c *Coordinator) RetryLastOperation(ctx context.Context) Snapshot {
	return c.submit(ctx, func(ctx context.Context) {
		kind, body := c.lastKind, c.lastReload
		if body == nil || (kind != KindLoad && kind != KindSync) {
			kind, body = KindSync, c.windowReload()
		}
		c.lastKind, c.lastReload = kind, body
		c.perform(ctx, kind, body)
	})
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Phase:        c.phase,
		Kind:         c.kind,
		Err:          c.err,
		Message:      apperrors.Describe(c.err, c.lang),
		RetryCount:   c.retryCount,
		Loading:      c.phase == PhaseLoading,
		CurrentMonth: c.currentMonth,
		Visits:       len(c.visits),
	}
}

// DayIndex returns a copy of the current index.
func (c *Coordinator) DayIndex() DayIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Clone()
}

// VisitsOn returns the visits starting on the day containing t.
func (c *Coordinator) VisitsOn(t time.Time) []models.Visit {
	day := utils.StartOfDay(t, c.loc)
	c.mu.RLock()
	defer c.mu.RUnlock()
	bucket := c.index[day]
	out := make([]models.Visit, len(bucket))
	for i, v := range bucket {
		out[i] = v.Clone()
	}
	return out
}

// AllVisits returns every indexed visit in ascending day order.
func (c *Coordinator) AllVisits() []models.Visit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Visit, len(c.visits))
	for i, v := range c.visits {
		out[i] = v.Clone()
	}
	return out
}

func (c *Coordinator) CurrentMonth() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentMonth
}

func (c *Coordinator) Location() *time.Location {
	return c.loc
}

func (s Snapshot) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s %s: %s (retries %d)", s.Kind, s.Phase, s.Message, s.RetryCount)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Phase)
}

// Package repository chooses between the device calendar and the durable
// store for every visit operation.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/reminder"
	"github.com/julianstephens/justdad/internal/storage"
)

// VisitRepository is what the agenda talks to.
type VisitRepository interface {
	storage.VisitStore
	RequestAuthorization(ctx context.Context) (bool, error)
	AuthorizationStatus() calendar.AuthorizationStatus
}

// Repository prefers the calendar while it is authorized and falls back to
// the durable store on any calendar failure. It holds no view state and is
// safe for concurrent use.
type Repository struct {
	api       calendar.API
	calendar  storage.VisitStore
	durable   storage.VisitStore
	reminders reminder.Scheduler
}

var _ VisitRepository = (*Repository)(nil)

// New builds a repository. api and cal may be nil when no device calendar
// is configured; reminders may be nil to disable scheduling.
func New(api calendar.API, cal storage.VisitStore, durable storage.VisitStore, reminders reminder.Scheduler) *Repository {
	if reminders == nil {
		reminders = reminder.NopScheduler{}
	}
	return &Repository{
		api:       api,
		calendar:  cal,
		durable:   durable,
		reminders: reminders,
	}
}

func (r *Repository) AuthorizationStatus() calendar.AuthorizationStatus {
	if r.api == nil {
		return calendar.NotDetermined
	}
	return r.api.AuthorizationStatus()
}

func (r *Repository) RequestAuthorization(ctx context.Context) (bool, error) {
	if r.api == nil {
		return false, nil
	}
	return r.api.RequestAccess(ctx)
}

func (r *Repository) calendarReady() bool {
	return r.calendar != nil && r.AuthorizationStatus() == calendar.Authorized
}

func (r *Repository) List(ctx context.Context, rng models.DateRange) ([]models.Visit, error) {
	var calErr error
	if r.calendarReady() {
		visits, err := r.calendar.List(ctx, rng)
		if err == nil {
			return visits, nil
		}
		calErr = err
		logger.Warn("Calendar list failed, using durable store", "range", rng.String(), "error", err)
	}
	visits, err := r.durable.List(ctx, rng)
	if err != nil {
		return nil, mapError("list visits", calErr, err)
	}
	return visits, nil
}

func (r *Repository) Create(ctx context.Context, v models.Visit) (models.Visit, error) {
	var calErr error
	if r.calendarReady() {
		created, err := r.calendar.Create(ctx, v)
		if err == nil {
			r.schedule(ctx, created)
			return created, nil
		}
		calErr = err
		logger.Warn("Calendar create failed, using durable store", "visit", v.ID, "error", err)
	}
	created, err := r.durable.Create(ctx, v)
	if err != nil {
		return models.Visit{}, mapError("create visit", calErr, err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, v models.Visit) (models.Visit, error) {
	var calErr error
	if r.calendarReady() {
		updated, err := r.calendar.Update(ctx, v)
		if err == nil {
			r.cancel(ctx, updated.ID)
			r.schedule(ctx, updated)
			return updated, nil
		}
		calErr = err
		logger.Warn("Calendar update failed, using durable store", "visit", v.ID, "error", err)
	}
	updated, err := r.durable.Update(ctx, v)
	if err != nil {
		return models.Visit{}, mapError("update visit", calErr, err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	var calErr error
	if r.calendarReady() {
		err := r.calendar.Delete(ctx, id)
		if err == nil {
			r.cancel(ctx, id)
			return nil
		}
		calErr = err
		logger.Warn("Calendar delete failed, using durable store", "visit", id, "error", err)
	}
	if err := r.durable.Delete(ctx, id); err != nil {
		return mapError("delete visit", calErr, err)
	}
	r.cancel(ctx, id)
	return nil
}

func (r *Repository) schedule(ctx context.Context, v models.Visit) {
	fireDate, title, body, ok := reminder.BuildReminder(v)
	if !ok {
		return
	}
	if err := r.reminders.Schedule(ctx, v.ID, fireDate, title, body); err != nil {
		logger.Warn("Failed to schedule reminder", "visit", v.ID, "error", err)
	}
}

func (r *Repository) cancel(ctx context.Context, id string) {
	if err := r.reminders.Cancel(ctx, id); err != nil {
		logger.Warn("Failed to cancel reminder", "visit", id, "error", err)
	}
}

// mapError translates a failed fallback into the error callers see. calErr
// is nil when the calendar was not tried.
func mapError(op string, calErr, durableErr error) error {
	if errors.Is(durableErr, storage.ErrVisitNotFound) || errors.Is(durableErr, storage.ErrInvalidVisit) {
		return fmt.Errorf("%s: %w", op, durableErr)
	}
	if calErr == nil {
		return fmt.Errorf("%s: %w", op, errors.Join(storage.ErrPermissionDenied, durableErr))
	}
	return fmt.Errorf("%s: %w", op, errors.Join(storage.ErrSyncFailed, calErr, durableErr))
}

package storage

import "errors"

var (
	// ErrPermissionDenied is returned when the calendar is not authorized and no fallback could serve the call.
	ErrPermissionDenied = errors.New("calendar permission denied")
	// ErrVisitNotFound is returned when an update or delete target is absent from the store being written.
	ErrVisitNotFound = errors.New("visit not found")
	// ErrSyncFailed wraps failures of both the calendar and the durable store.
	ErrSyncFailed = errors.New("visit sync failed")
	// ErrConversionFailed is returned when a visit and a calendar event cannot be mapped onto each other.
	ErrConversionFailed = errors.New("calendar conversion failed")
	// ErrStoreIO wraps record store read and write failures.
	ErrStoreIO = errors.New("record store error")
	// ErrNotLoaded is returned when a record store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
	// ErrInvalidVisit is returned for visits that fail validation.
	ErrInvalidVisit = errors.New("invalid visit")
)

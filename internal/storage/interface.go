package storage

import (
	"context"

	"github.com/julianstephens/justdad/internal/models"
)

// VisitStore is the capability shared by the durable store, the calendar
// adapter and the repository that chooses between them.
type VisitStore interface {
	List(ctx context.Context, r models.DateRange) ([]models.Visit, error)
	Create(ctx context.Context, v models.Visit) (models.Visit, error)
	Update(ctx context.Context, v models.Visit) (models.Visit, error)
	Delete(ctx context.Context, id string) error
}

// RecordStore persists visits. Save is an upsert keyed by
// Visit.StorageKey, and FetchAll fills in RecordKey on every visit.
type RecordStore interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Visits
	Save(ctx context.Context, v models.Visit) error
	FetchAll(ctx context.Context) ([]models.Visit, error)
	Delete(ctx context.Context, v models.Visit) error

	// Utils
	GetConfigPath() string
}

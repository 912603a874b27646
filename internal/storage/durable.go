package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
)

// DurableStore keeps the ordered visit collection in memory and writes every
// change through to a RecordStore. It is the fallback when the device
// calendar is unavailable.
//
// Creating the same ID twice appends two entries, each persisted under its
// own record key; callers that want upsert semantics must de-duplicate
// themselves.
type DurableStore struct {
	mu      sync.Mutex
	records RecordStore
	visits  []models.Visit
	loaded  bool
	now     func() time.Time
}

func NewDurableStore(records RecordStore) *DurableStore {
	return &DurableStore{
		records: records,
		now:     time.Now,
	}
}

// Load hydrates the in-memory collection from the record store.
func (s *DurableStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *DurableStore) loadLocked(ctx context.Context) error {
	visits, err := s.records.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch visits: %v", ErrStoreIO, err)
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].Start.Before(visits[j].Start)
	})
	s.visits = visits
	s.loaded = true
	logger.Debug("Durable store loaded", "visits", len(visits))
	return nil
}

func (s *DurableStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// List returns the visits overlapping r, in collection order.
func (s *DurableStore) List(ctx context.Context, r models.DateRange) ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var out []models.Visit
	for _, v := range s.visits {
		if v.Overlaps(r) {
			out = append(out, v.Clone())
		}
	}
	return out, nil
}

// Create appends v, generating an ID only when v has none.
func (s *DurableStore) Create(ctx context.Context, v models.Visit) (models.Visit, error) {
	if err := v.Validate(); err != nil {
		return models.Visit{}, fmt.Errorf("%w: %v", ErrInvalidVisit, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.Visit{}, err
	}

	v = v.Clone()
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.RecordKey = v.ID
	if slices.ContainsFunc(s.visits, func(existing models.Visit) bool { return existing.StorageKey() == v.ID }) {
		v.RecordKey = uuid.New().String()
	}
	if v.Type == "" {
		v.Type = models.VisitTypeGeneral
	}
	now := s.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	if err := s.records.Save(ctx, v); err != nil {
		return models.Visit{}, fmt.Errorf("%w: save visit %s: %v", ErrStoreIO, v.ID, err)
	}
	s.visits = append(s.visits, v)
	return v.Clone(), nil
}

// Update replaces every visit carrying v.ID and returns the first.
func (s *DurableStore) Update(ctx context.Context, v models.Visit) (models.Visit, error) {
	if err := v.Validate(); err != nil {
		return models.Visit{}, fmt.Errorf("%w: %v", ErrInvalidVisit, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.Visit{}, err
	}

	if v.Type == "" {
		v.Type = models.VisitTypeGeneral
	}
	now := s.now()
	var first *models.Visit
	for i, existing := range s.visits {
		if existing.ID != v.ID {
			continue
		}
		u := v.Clone()
		u.RecordKey = existing.StorageKey()
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = now
		if err := s.records.Save(ctx, u); err != nil {
			return models.Visit{}, fmt.Errorf("%w: save visit %s: %v", ErrStoreIO, v.ID, err)
		}
		s.visits[i] = u
		if first == nil {
			first = &u
		}
	}
	if first == nil {
		return models.Visit{}, fmt.Errorf("%w: %s", ErrVisitNotFound, v.ID)
	}
	return first.Clone(), nil
}

// Delete removes every visit carrying id.
func (s *DurableStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	if !slices.ContainsFunc(s.visits, func(v models.Visit) bool { return v.ID == id }) {
		return fmt.Errorf("%w: %s", ErrVisitNotFound, id)
	}

	kept := s.visits[:0:0]
	for i, v := range s.visits {
		if v.ID != id {
			kept = append(kept, v)
			continue
		}
		if err := s.records.Delete(ctx, v); err != nil {
			s.visits = append(kept, s.visits[i:]...)
			return fmt.Errorf("%w: delete visit %s: %v", ErrStoreIO, id, err)
		}
	}
	s.visits = kept
	return nil
}

// Get returns the first visit carrying id.
func (s *DurableStore) Get(ctx context.Context, id string) (models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.Visit{}, err
	}
	for _, v := range s.visits {
		if v.ID == id {
			return v.Clone(), nil
		}
	}
	return models.Visit{}, fmt.Errorf("%w: %s", ErrVisitNotFound, id)
}

// All returns every visit in collection order.
func (s *DurableStore) All(ctx context.Context) ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Visit, 0, len(s.visits))
	for _, v := range s.visits {
		out = append(out, v.Clone())
	}
	return out, nil
}

package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/julianstephens/justdad/internal/models"
)

// MemoryRecordStore keeps records in process memory only, keyed by
// Visit.StorageKey. It backs "memory://" DSNs and tests.
type MemoryRecordStore struct {
	mu      sync.Mutex
	order   []string
	records map[string]models.Visit
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]models.Visit)}
}

func (s *MemoryRecordStore) Init() error  { return nil }
func (s *MemoryRecordStore) Load() error  { return nil }
func (s *MemoryRecordStore) Close() error { return nil }

func (s *MemoryRecordStore) Save(ctx context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := v.StorageKey()
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	v = v.Clone()
	v.RecordKey = key
	s.records[key] = v
	return nil
}

func (s *MemoryRecordStore) FetchAll(ctx context.Context) ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Visit, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.records[key].Clone())
	}
	return out, nil
}

func (s *MemoryRecordStore) Delete(ctx context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := v.StorageKey()
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	return nil
}

func (s *MemoryRecordStore) GetConfigPath() string {
	return "memory://"
}

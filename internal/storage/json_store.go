package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/julianstephens/justdad/internal/models"
)

type jsonDocument struct {
	Version int                     `json:"version"`
	Visits  map[string]models.Visit `json:"visits"`
}

// JSONStore is a RecordStore backed by a single JSON file. Visits are
// filed under their storage key.
type JSONStore struct {
	mu    sync.Mutex
	path  string
	store *jsonDocument
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.loadLocked()
	}

	s.store = &jsonDocument{Version: 1, Visits: make(map[string]models.Visit)}
	return s.save()
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *JSONStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'justdad init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &jsonDocument{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if s.store.Visits == nil {
		s.store.Visits = make(map[string]models.Visit)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) Save(ctx context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNotLoaded
	}
	key := v.StorageKey()
	v = v.Clone()
	v.RecordKey = key
	s.store.Visits[key] = v
	return s.save()
}

func (s *JSONStore) FetchAll(ctx context.Context) ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil, ErrNotLoaded
	}
	visits := make([]models.Visit, 0, len(s.store.Visits))
	for key, v := range s.store.Visits {
		v = v.Clone()
		v.RecordKey = key
		visits = append(visits, v)
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].Start.Equal(visits[j].Start) {
			return visits[i].RecordKey < visits[j].RecordKey
		}
		return visits[i].Start.Before(visits[j].Start)
	})
	return visits, nil
}

func (s *JSONStore) Delete(ctx context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNotLoaded
	}
	delete(s.store.Visits, v.StorageKey())
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

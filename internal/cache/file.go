package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
)

// CodesEntry is a cached encode result.
type CodesEntry struct {
	Result    *mapcode.Result `json:"result"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// CoordsEntry is a cached decode result.
type CoordsEntry struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	CachedAt   time.Time      `json:"cached_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

type fileData struct {
	Codes  map[string]*CodesEntry  `json:"codes"`
	Coords map[string]*CoordsEntry `json:"coords"`
}

// FileStore is a Store persisted as one JSON file.
type FileStore struct {
	mu    sync.RWMutex
	data  fileData
	path  string
	ttl   time.Duration
	dirty bool
	now   func() time.Time
}

// NewFileStore creates a file store; call Load to read existing entries.
func NewFileStore(path string, ttlDays int) *FileStore {
	return &FileStore{
		data: fileData{
			Codes:  make(map[string]*CodesEntry),
			Coords: make(map[string]*CoordsEntry),
		},
		path: path,
		ttl:  ttlFromDays(ttlDays),
		now:  time.Now,
	}
}

// Path returns the cache file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache from disk. A missing file is not an error.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("parse cache %s: %w", s.path, err)
	}
	if fd.Codes == nil {
		fd.Codes = make(map[string]*CodesEntry)
	}
	if fd.Coords == nil {
		fd.Coords = make(map[string]*CoordsEntry)
	}
	s.data = fd
	return nil
}

// Save writes the cache to disk if it changed.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// GetCodes returns the cached result for a coordinate key.
func (s *FileStore) GetCodes(_ context.Context, key string) (*mapcode.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data.Codes[key]
	if !ok || entry.Result == nil || s.now().After(entry.ExpiresAt) {
		return nil, ErrMiss
	}
	return entry.Result, nil
}

// PutCodes stores the result for a coordinate key.
func (s *FileStore) PutCodes(_ context.Context, key string, r *mapcode.Result) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("cache codes %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data.Codes[key] = &CodesEntry{
		Result:    r,
		CachedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.dirty = true
	return nil
}

// GetCoords returns the cached location of a mapcode.
func (s *FileStore) GetCoords(_ context.Context, code string) (geo.Coordinate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data.Coords[CodeKey(code)]
	if !ok || s.now().After(entry.ExpiresAt) {
		return geo.Coordinate{}, ErrMiss
	}
	return entry.Coordinate, nil
}

// PutCoords stores the location of a mapcode.
func (s *FileStore) PutCoords(_ context.Context, code string, c geo.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data.Coords[CodeKey(code)] = &CoordsEntry{
		Coordinate: c,
		CachedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.dirty = true
	return nil
}

// Clear removes all entries.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Codes = make(map[string]*CodesEntry)
	s.data.Coords = make(map[string]*CoordsEntry)
	s.dirty = true
}

// Cleanup removes expired entries and returns how many were removed.
func (s *FileStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.data.Codes {
		if now.After(entry.ExpiresAt) {
			delete(s.data.Codes, key)
			removed++
		}
	}
	for key, entry := range s.data.Coords {
		if now.After(entry.ExpiresAt) {
			delete(s.data.Coords, key)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
	}
	return removed
}

// Size returns the number of cached entries.
func (s *FileStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Codes) + len(s.data.Coords)
}

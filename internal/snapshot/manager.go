package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hightemp/mapcode/internal/config"
	"github.com/hightemp/mapcode/internal/territory"
)

// ErrNoSnapshots is returned when no snapshot has been written yet.
var ErrNoSnapshots = errors.New("no snapshots available")

// Manager handles snapshot operations.
type Manager struct {
	cacheDir string
}

// NewManager creates a new snapshot manager.
func NewManager(cacheDir string) *Manager {
	return &Manager{cacheDir: cacheDir}
}

// Dir returns the directory for a specific date.
func (m *Manager) Dir(date string) string {
	return config.SnapshotDir(m.cacheDir, date)
}

// Create creates a new snapshot directory.
func (m *Manager) Create(date string) (string, error) {
	dir := m.Dir(date)
	if err := config.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	return dir, nil
}

// Exists checks if a snapshot exists for the given date.
func (m *Manager) Exists(date string) bool {
	_, err := os.Stat(config.MetadataPath(m.Dir(date)))
	return err == nil
}

// Write stores table and its metadata as the snapshot for date and points
// the latest symlink at it.
func (m *Manager) Write(date string, table territory.Table, meta *Metadata) (string, error) {
	dir, err := m.Create(date)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode territories: %w", err)
	}
	if err := os.WriteFile(config.TerritoriesPath(dir), data, 0644); err != nil {
		return "", fmt.Errorf("write territories: %w", err)
	}

	meta.Date = date
	meta.TerritoriesCount = table.Len()
	meta.IsLatest = true
	if err := meta.Save(config.MetadataPath(dir)); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := m.SetLatest(date); err != nil {
		return "", fmt.Errorf("set latest: %w", err)
	}
	return dir, nil
}

// Latest returns the latest snapshot directory and metadata.
func (m *Manager) Latest() (string, *Metadata, error) {
	latestPath := config.LatestSnapshotPath(m.cacheDir)
	if target, err := os.Readlink(latestPath); err == nil {
		if !filepath.IsAbs(target) {
			target = filepath.Join(config.SnapshotsDir(m.cacheDir), target)
		}
		if meta, err := LoadMetadata(config.MetadataPath(target)); err == nil {
			return target, meta, nil
		}
	}

	// No usable symlink, pick the most recent date
	dates, err := m.List()
	if err != nil {
		return "", nil, err
	}
	if len(dates) == 0 {
		return "", nil, ErrNoSnapshots
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	dir := m.Dir(dates[0])
	meta, err := LoadMetadata(config.MetadataPath(dir))
	if err != nil {
		return "", nil, fmt.Errorf("load metadata for %s: %w", dates[0], err)
	}
	return dir, meta, nil
}

// ByDate returns the snapshot for a specific date.
func (m *Manager) ByDate(date string) (string, *Metadata, error) {
	dir := m.Dir(date)
	metaPath := config.MetadataPath(dir)

	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return "", nil, fmt.Errorf("snapshot for %s not found, run: %s update", date, config.AppName)
	}

	meta, err := LoadMetadata(metaPath)
	if err != nil {
		return "", nil, fmt.Errorf("load metadata: %w", err)
	}
	return dir, meta, nil
}

// LoadTable reads the territory table stored in a snapshot directory.
func LoadTable(dir string) (territory.Table, error) {
	data, err := os.ReadFile(config.TerritoriesPath(dir))
	if err != nil {
		return nil, err
	}

	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode territories: %w", err)
	}
	return territory.FromNames(names), nil
}

// LatestTable returns the latest snapshot table merged over the embedded
// one, or the embedded table alone when no snapshot exists.
func (m *Manager) LatestTable() (territory.Table, *Metadata, error) {
	dir, meta, err := m.Latest()
	if errors.Is(err, ErrNoSnapshots) {
		return territory.Embedded(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	table, err := LoadTable(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot %s: %w", meta.Date, err)
	}
	return table.Merge(territory.Embedded()), meta, nil
}

// TableByDate returns the table of the snapshot for date merged over the
// embedded one.
func (m *Manager) TableByDate(date string) (territory.Table, *Metadata, error) {
	dir, meta, err := m.ByDate(date)
	if err != nil {
		return nil, nil, err
	}
	table, err := LoadTable(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot %s: %w", date, err)
	}
	return table.Merge(territory.Embedded()), meta, nil
}

// List returns all available snapshot dates.
func (m *Manager) List() ([]string, error) {
	snapshotsDir := config.SnapshotsDir(m.cacheDir)
	if err := config.EnsureDir(snapshotsDir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(snapshotsDir)
	if err != nil {
		return nil, err
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == config.LatestSymlink {
			continue
		}
		// YYYY-MM-DD
		if len(name) == 10 && strings.Count(name, "-") == 2 {
			dates = append(dates, name)
		}
	}
	return dates, nil
}

// SetLatest updates the latest symlink to point to the given date.
func (m *Manager) SetLatest(date string) error {
	latestPath := config.LatestSnapshotPath(m.cacheDir)
	os.Remove(latestPath)
	return os.Symlink(date, latestPath)
}

// Delete removes a snapshot.
func (m *Manager) Delete(date string) error {
	return os.RemoveAll(m.Dir(date))
}

// Prune deletes all but the keep most recent snapshots and returns the
// removed dates. The snapshot the latest symlink points at is never removed.
func (m *Manager) Prune(keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	dates, err := m.List()
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	latest, _ := os.Readlink(config.LatestSnapshotPath(m.cacheDir))
	latest = filepath.Base(latest)

	var removed []string
	for i, date := range dates {
		if i < keep || date == latest {
			continue
		}
		if err := m.Delete(date); err != nil {
			return removed, fmt.Errorf("delete snapshot %s: %w", date, err)
		}
		removed = append(removed, date)
	}
	return removed, nil
}

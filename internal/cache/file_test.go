package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
)

func testResult() *mapcode.Result {
	r, _ := mapcode.BuildResult(
		mapcode.Mapcode{Territory: "NLD", Code: "49.4V"},
		mapcode.Mapcode{Code: "VHXGB.1J9J"},
		[]mapcode.Mapcode{
			{Territory: "NLD", Code: "49.4V"},
			{Territory: "NLD", Code: "G9.VWG"},
			{Code: "VHXGB.1J9J"},
		},
	)
	return r
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "mapcode-cache-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	path := filepath.Join(tmpDir, "cache.json")
	return NewFileStore(path, 7), path
}

func TestFileStoreCodes(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	key := geo.Default.Key()

	if _, err := store.GetCodes(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss on empty store, got %v", err)
	}

	if err := store.PutCodes(ctx, key, testResult()); err != nil {
		t.Fatalf("PutCodes failed: %v", err)
	}
	r, err := store.GetCodes(ctx, key)
	if err != nil {
		t.Fatalf("GetCodes failed: %v", err)
	}
	if r.Shortest() != "NLD 49.4V" {
		t.Errorf("Shortest = %s", r.Shortest())
	}
}

func TestFileStoreRejectsInvalidResult(t *testing.T) {
	store, _ := newTestStore(t)
	bad := &mapcode.Result{Mapcodes: []string{"NLD 49.4V"}, Territories: []string{"NLD"}}
	if err := store.PutCodes(context.Background(), "k", bad); err == nil {
		t.Error("expected error for a result without international code")
	}
	if store.Size() != 0 {
		t.Errorf("Size = %d, expected 0", store.Size())
	}
}

func TestFileStoreCoordsKeyNormalized(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.PutCoords(ctx, "nld  49.4v", geo.Default); err != nil {
		t.Fatalf("PutCoords failed: %v", err)
	}
	c, err := store.GetCoords(ctx, " NLD 49.4V ")
	if err != nil {
		t.Fatalf("GetCoords failed: %v", err)
	}
	if !c.Equal(geo.Default) {
		t.Errorf("GetCoords = %v, expected %v", c, geo.Default)
	}
}

func TestFileStorePersistence(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	store.PutCodes(ctx, "a", testResult())
	store.PutCoords(ctx, "NLD 49.4V", geo.Default)
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	loaded := NewFileStore(path, 7)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Size() != 2 {
		t.Errorf("Size = %d, expected 2", loaded.Size())
	}
	r, err := loaded.GetCodes(ctx, "a")
	if err != nil {
		t.Fatalf("GetCodes after load failed: %v", err)
	}
	if r.International() != "VHXGB.1J9J" {
		t.Errorf("International = %s", r.International())
	}
}

func TestFileStoreSaveOnlyWhenDirty(t *testing.T) {
	store, path := newTestStore(t)
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("clean store should not write a file")
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Load(); err != nil {
		t.Errorf("Load of a missing file should succeed, got %v", err)
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	store, path := newTestStore(t)
	os.WriteFile(path, []byte("{not json"), 0644)
	if err := store.Load(); err == nil {
		t.Error("expected error for corrupt cache file")
	}
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.PutCodes(ctx, "a", testResult())
	store.PutCoords(ctx, "NLD 49.4V", geo.Default)

	now = now.Add(6 * 24 * time.Hour)
	if _, err := store.GetCodes(ctx, "a"); err != nil {
		t.Errorf("entry should still be valid: %v", err)
	}

	now = now.Add(2 * 24 * time.Hour)
	if _, err := store.GetCodes(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after TTL, got %v", err)
	}
	if _, err := store.GetCoords(ctx, "NLD 49.4V"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after TTL, got %v", err)
	}

	if removed := store.Cleanup(); removed != 2 {
		t.Errorf("Cleanup removed %d, expected 2", removed)
	}
	if store.Size() != 0 {
		t.Errorf("Size = %d, expected 0", store.Size())
	}
}

func TestFileStoreClear(t *testing.T) {
	store, _ := newTestStore(t)
	store.PutCoords(context.Background(), "NLD 49.4V", geo.Default)
	store.Clear()
	if store.Size() != 0 {
		t.Errorf("Size = %d after Clear", store.Size())
	}
}

func TestCodeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"nld 49.4v", "NLD 49.4V"},
		{"  NLD\t49.4V  ", "NLD 49.4V"},
		{"vhxgb.1j9j", "VHXGB.1J9J"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := CodeKey(tc.input); got != tc.expected {
			t.Errorf("CodeKey(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestTTLDefault(t *testing.T) {
	if got := ttlFromDays(0); got != DefaultTTLDays*24*time.Hour {
		t.Errorf("ttlFromDays(0) = %v", got)
	}
}

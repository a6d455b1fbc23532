//go:build integration

package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hightemp/mapcode/internal/geo"
)

// Run with: MAPCODE_TEST_REDIS=localhost:6379 go test -tags=integration ./internal/cache
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("MAPCODE_TEST_REDIS")
	if addr == "" {
		t.Skip("MAPCODE_TEST_REDIS not set")
	}
	ctx := context.Background()

	store, err := OpenRedis(ctx, RedisOptions{Addr: addr, Prefix: "mapcode-test:", TTLDays: 1})
	if err != nil {
		t.Fatalf("OpenRedis failed: %v", err)
	}
	defer store.Close()

	if _, err := store.GetCodes(ctx, "missing"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	key := geo.Default.Key()
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

	if err := store.PutCoords(ctx, "nld 49.4v", geo.Default); err != nil {
		t.Fatalf("PutCoords failed: %v", err)
	}
	c, err := store.GetCoords(ctx, "NLD 49.4V")
	if err != nil {
		t.Fatalf("GetCoords failed: %v", err)
	}
	if !c.Equal(geo.Default) {
		t.Errorf("GetCoords = %v", c)
	}
}

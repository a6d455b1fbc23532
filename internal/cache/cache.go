// Package cache stores mapcode lookup results so they can be served again
// without the remote API.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
)

// DefaultTTLDays is used when a store is created with a non-positive TTL.
const DefaultTTLDays = 30

// ErrMiss is returned when a key is not cached or has expired.
var ErrMiss = errors.New("cache miss")

// Store is a result cache. Codes are keyed by geo.Coordinate.Key, coordinates
// by the normalized mapcode (see CodeKey).
type Store interface {
	GetCodes(ctx context.Context, key string) (*mapcode.Result, error)
	PutCodes(ctx context.Context, key string, r *mapcode.Result) error
	GetCoords(ctx context.Context, code string) (geo.Coordinate, error)
	PutCoords(ctx context.Context, code string, c geo.Coordinate) error
	Save() error
}

func ttlFromDays(days int) time.Duration {
	if days <= 0 {
		days = DefaultTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// CodeKey normalizes a mapcode for use as a cache key: upper case with
// single spaces.
func CodeKey(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

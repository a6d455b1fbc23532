package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hightemp/mapcode/internal/cache"
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/territory"
)

// Offline serves mapcodes from the cache and territory names from a local
// table. It never touches the network.
type Offline struct {
	store  cache.Store
	table  territory.Table
	logger *slog.Logger
}

// NewOffline creates an offline source. A nil table selects the embedded
// one; a nil store makes every lookup ErrUnavailable.
func NewOffline(store cache.Store, table territory.Table, logger *slog.Logger) *Offline {
	if table == nil {
		table = territory.Embedded()
	}
	return &Offline{
		store:  store,
		table:  table,
		logger: componentLogger(logger, "offline-source"),
	}
}

// Mode returns ModeOffline.
func (o *Offline) Mode() Mode {
	return ModeOffline
}

// Encode returns the cached mapcodes for c.
func (o *Offline) Encode(ctx context.Context, c geo.Coordinate) (*mapcode.Result, error) {
	if o.store == nil {
		return nil, fmt.Errorf("encode %s: %w", c, ErrUnavailable)
	}
	r, err := o.store.GetCodes(ctx, c.Key())
	if errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("encode %s: %w", c, ErrUnavailable)
	}
	if err != nil {
		return nil, err
	}
	o.logger.Debug("served codes from cache", "coordinate", c.Key())
	return r, nil
}

// Decode returns the cached location of a mapcode.
func (o *Offline) Decode(ctx context.Context, code string) (geo.Coordinate, error) {
	if o.store == nil {
		return geo.Coordinate{}, fmt.Errorf("decode %q: %w", code, ErrUnavailable)
	}
	c, err := o.store.GetCoords(ctx, code)
	if errors.Is(err, cache.ErrMiss) {
		return geo.Coordinate{}, fmt.Errorf("decode %q: %w", code, ErrUnavailable)
	}
	if err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}

// Territories returns the local territory table.
func (o *Offline) Territories(context.Context) (territory.Table, error) {
	return o.table, nil
}

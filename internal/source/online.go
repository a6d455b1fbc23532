package source

import (
	"context"
	"log/slog"

	"github.com/hightemp/mapcode/internal/cache"
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/mapcodeapi"
	"github.com/hightemp/mapcode/internal/territory"
)

// API is the part of the REST client used by Online.
type API interface {
	Codes(ctx context.Context, c geo.Coordinate) (*mapcodeapi.CodesResponse, error)
	Coords(ctx context.Context, code string) (*mapcodeapi.CoordsResponse, error)
	Territories(ctx context.Context) (*mapcodeapi.TerritoriesResponse, error)
}

// Online looks up mapcodes through the REST API and writes every answer to
// the cache, so it can later be served offline.
type Online struct {
	api    API
	store  cache.Store
	logger *slog.Logger
}

// NewOnline creates an online source. store may be nil.
func NewOnline(api API, store cache.Store, logger *slog.Logger) *Online {
	return &Online{
		api:    api,
		store:  store,
		logger: componentLogger(logger, "online-source"),
	}
}

// Mode returns ModeOnline.
func (o *Online) Mode() Mode {
	return ModeOnline
}

// Encode returns every mapcode for c.
func (o *Online) Encode(ctx context.Context, c geo.Coordinate) (*mapcode.Result, error) {
	resp, err := o.api.Codes(ctx, c)
	if err != nil {
		return nil, err
	}
	result, err := resp.Result()
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		if err := o.store.PutCodes(ctx, c.Key(), result); err != nil {
			o.logger.Warn("failed to cache codes", "coordinate", c.Key(), "error", err)
		}
		// Each code decodes to (about) c, which lets offline decoding work
		// for every mapcode seen.
		for _, m := range result.Mapcodes {
			if err := o.store.PutCoords(ctx, m, c); err != nil {
				o.logger.Warn("failed to cache coordinate", "mapcode", m, "error", err)
				break
			}
		}
	}
	return result, nil
}

// Decode returns the location of a mapcode.
func (o *Online) Decode(ctx context.Context, code string) (geo.Coordinate, error) {
	resp, err := o.api.Coords(ctx, code)
	if err != nil {
		return geo.Coordinate{}, err
	}
	c, err := resp.Coordinate()
	if err != nil {
		return geo.Coordinate{}, err
	}

	if o.store != nil {
		if err := o.store.PutCoords(ctx, code, c); err != nil {
			o.logger.Warn("failed to cache coordinate", "mapcode", code, "error", err)
		}
	}
	return c, nil
}

// Territories returns the territory names known to the API.
func (o *Online) Territories(ctx context.Context) (territory.Table, error) {
	resp, err := o.api.Territories(ctx)
	if err != nil {
		return nil, err
	}
	return territory.FromNames(resp.Names()), nil
}

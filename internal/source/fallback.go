package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/mapcodeapi"
	"github.com/hightemp/mapcode/internal/territory"
)

// Fallback uses the online source until the API becomes unreachable, then
// serves from the offline source until TryOnline succeeds.
type Fallback struct {
	mu      sync.RWMutex
	online  Source
	offline Source
	mode    Mode
	logger  *slog.Logger
}

// NewFallback creates a fallback source that starts online.
func NewFallback(online, offline Source, logger *slog.Logger) *Fallback {
	return &Fallback{
		online:  online,
		offline: offline,
		mode:    ModeOnline,
		logger:  componentLogger(logger, "fallback-source"),
	}
}

// Mode returns the source currently in use.
func (f *Fallback) Mode() Mode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

func (f *Fallback) current() Source {
	if f.Mode() == ModeOffline {
		return f.offline
	}
	return f.online
}

// switchOffline reports whether err moved the source offline.
func (f *Fallback) switchOffline(ctx context.Context, err error) bool {
	if ctx.Err() != nil || !mapcodeapi.IsUnreachable(err) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != ModeOffline {
		f.logger.Warn("mapcode API unreachable, switching to offline source", "error", err)
		f.mode = ModeOffline
	}
	return true
}

// TryOnline probes the API while offline and switches back on success. It
// reports whether the source is online afterwards.
func (f *Fallback) TryOnline(ctx context.Context) bool {
	if f.Mode() == ModeOnline {
		return true
	}
	if _, err := f.online.Territories(ctx); err != nil {
		f.logger.Debug("mapcode API still unreachable", "error", err)
		return false
	}

	f.mu.Lock()
	f.mode = ModeOnline
	f.mu.Unlock()
	f.logger.Info("mapcode API reachable again, switching to online source")
	return true
}

// Encode encodes with the current source, falling back to offline when the
// API cannot be reached.
func (f *Fallback) Encode(ctx context.Context, c geo.Coordinate) (*mapcode.Result, error) {
	src := f.current()
	r, err := src.Encode(ctx, c)
	if err == nil || src == f.offline || !f.switchOffline(ctx, err) {
		return r, err
	}
	r, offErr := f.offline.Encode(ctx, c)
	if offErr != nil {
		return nil, fallbackError(err, offErr)
	}
	return r, nil
}

// Decode decodes with the current source, falling back to offline when the
// API cannot be reached.
func (f *Fallback) Decode(ctx context.Context, code string) (geo.Coordinate, error) {
	src := f.current()
	c, err := src.Decode(ctx, code)
	if err == nil || src == f.offline || !f.switchOffline(ctx, err) {
		return c, err
	}
	c, offErr := f.offline.Decode(ctx, code)
	if offErr != nil {
		return geo.Coordinate{}, fallbackError(err, offErr)
	}
	return c, nil
}

// Territories returns the territory table of the current source.
func (f *Fallback) Territories(ctx context.Context) (territory.Table, error) {
	src := f.current()
	t, err := src.Territories(ctx)
	if err == nil || src == f.offline || !f.switchOffline(ctx, err) {
		return t, err
	}
	return f.offline.Territories(ctx)
}

// FallbackError is returned when the API was unreachable and the offline
// source could not answer either. Both failures stay in the chain, so
// errors.Is matches the offline ErrUnavailable as well as the transport error.
type FallbackError struct {
	Online  error
	Offline error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%v (offline: %v)", e.Online, e.Offline)
}

func (e *FallbackError) Unwrap() []error {
	return []error{e.Online, e.Offline}
}

func fallbackError(onlineErr, offlineErr error) error {
	return &FallbackError{Online: onlineErr, Offline: offlineErr}
}

// Package source provides the mapcode lookups used by the commands and the
// session: online through the REST API, offline from cached results, or a
// fallback that switches between the two.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/mapcodeapi"
	"github.com/hightemp/mapcode/internal/territory"
)

// Mode selects which source is used.
type Mode string

const (
	// ModeAuto starts online and falls back to offline when the API is unreachable.
	ModeAuto Mode = "auto"
	// ModeOnline uses only the REST API.
	ModeOnline Mode = "online"
	// ModeOffline uses only cached results.
	ModeOffline Mode = "offline"
)

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto", "":
		return ModeAuto, nil
	case "online":
		return ModeOnline, nil
	case "offline":
		return ModeOffline, nil
	default:
		return "", fmt.Errorf("invalid source mode: %s (use auto, online, or offline)", s)
	}
}

var (
	// ErrNotFound is returned when a mapcode or location does not exist.
	ErrNotFound = mapcodeapi.ErrNotFound

	// ErrUnavailable is returned when the offline source has no data for a
	// request.
	ErrUnavailable = errors.New("not available offline")
)

// Source encodes and decodes mapcodes.
type Source interface {
	Encode(ctx context.Context, c geo.Coordinate) (*mapcode.Result, error)
	Decode(ctx context.Context, code string) (geo.Coordinate, error)
	Territories(ctx context.Context) (territory.Table, error)
	Mode() Mode
}

// Retryable reports whether a failed request may succeed if sent again:
// transport and server failures are, missing mapcodes and offline misses
// are not. A FallbackError follows its online failure.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var fe *FallbackError
	if errors.As(err, &fe) {
		return Retryable(fe.Online)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return false
	}
	return true
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

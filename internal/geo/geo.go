// Package geo provides the coordinate type shared by all lookups.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Epsilon is the microdegree threshold below which two degrees are equal.
	Epsilon = 1.0e-6

	// KeyPrecision is the number of decimals used for cache keys.
	KeyPrecision = 6

	// MaxLongitude is the largest longitude kept after clamping; 180 itself
	// wraps to -180 on the API side.
	MaxLongitude = 180.0 - 1.0e-12
)

var (
	// ErrInvalidLatitude is returned when a latitude cannot be parsed.
	ErrInvalidLatitude   = errors.New("invalid latitude")
	// ErrInvalidLongitude is returned when a longitude cannot be parsed.
	ErrInvalidLongitude  = errors.New("invalid longitude")
	// ErrInvalidCoordinate is returned when a "lat,lon" pair is malformed.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Default is the location used until a real one is known (Amsterdam).
var Default = Coordinate{Lat: 52.373293, Lon: 4.893718}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// New returns a clamped coordinate.
func New(lat, lon float64) Coordinate {
	return Coordinate{Lat: ClampLatitude(lat), Lon: ClampLongitude(lon)}
}

// ClampLatitude limits a latitude to [-90, 90].
func ClampLatitude(lat float64) float64 {
	return math.Max(-90.0, math.Min(90.0, lat))
}

// ClampLongitude limits a longitude to [-180, 180).
func ClampLongitude(lon float64) float64 {
	return math.Max(-180.0, math.Min(MaxLongitude, lon))
}

// AlmostEqual compares two degrees to microdegree level.
func AlmostEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Equal reports whether both components are almost equal.
func (c Coordinate) Equal(other Coordinate) bool {
	return AlmostEqual(c.Lat, other.Lat) && AlmostEqual(c.Lon, other.Lon)
}

// IsPlausible reports false when both latitude and longitude are within 0.1
// degrees of 0. Location providers sometimes emit such points before they
// have a fix. The equator and the prime meridian elsewhere are plausible.
func (c Coordinate) IsPlausible() bool {
	return math.Abs(c.Lat) > 0.1 || math.Abs(c.Lon) > 0.1
}

// String formats the coordinate for display.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// Key returns a stable key normalized to KeyPrecision decimals.
func (c Coordinate) Key() string {
	lat := strconv.FormatFloat(roundTo(c.Lat, KeyPrecision), 'f', KeyPrecision, 64)
	lon := strconv.FormatFloat(roundTo(c.Lon, KeyPrecision), 'f', KeyPrecision, 64)
	return lat + "," + lon
}

// PathParam formats the coordinate as used in API paths ("lat,lon").
func (c Coordinate) PathParam() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// ParseLatLon parses separate latitude and longitude strings and clamps them.
func ParseLatLon(lat, lon string) (Coordinate, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || math.IsNaN(la) {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidLatitude, lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil || math.IsNaN(lo) {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidLongitude, lon)
	}
	return New(la, lo), nil
}

// Parse parses "lat,lon" or "lat lon".
func Parse(s string) (Coordinate, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) != 2 {
		return Coordinate{}, fmt.Errorf("%w: expected \"lat,lon\", got %q", ErrInvalidCoordinate, s)
	}
	return ParseLatLon(fields[0], fields[1])
}

// LooksLikeCoordinate reports whether s parses as a coordinate pair.
func LooksLikeCoordinate(s string) bool {
	_, err := Parse(s)
	return err == nil
}

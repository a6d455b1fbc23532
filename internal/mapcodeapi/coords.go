package mapcodeapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hightemp/mapcode/internal/geo"
)

// CoordsResponse is the response of /mapcode/coords/{mapcode}.
type CoordsResponse struct {
	LatDeg *float64 `json:"latDeg"`
	LonDeg *float64 `json:"lonDeg"`
}

// Coordinate returns the decoded location.
func (r *CoordsResponse) Coordinate() (geo.Coordinate, error) {
	if r.LatDeg == nil || r.LonDeg == nil {
		return geo.Coordinate{}, fmt.Errorf("response has no latDeg/lonDeg")
	}
	return geo.New(*r.LatDeg, *r.LonDeg), nil
}

// Coords decodes a mapcode, optionally prefixed with its territory.
func (c *Client) Coords(ctx context.Context, code string) (*CoordsResponse, error) {
	code = strings.Join(strings.Fields(code), " ")
	if code == "" {
		return nil, fmt.Errorf("decode mapcode: %w: empty mapcode", ErrNotFound)
	}
	path := "/mapcode/coords/" + url.PathEscape(code)

	var resp CoordsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("decode mapcode %q: %w", code, err)
	}
	if resp.LatDeg == nil || resp.LonDeg == nil {
		return nil, fmt.Errorf("decode mapcode %q: incomplete response", code)
	}
	return &resp, nil
}

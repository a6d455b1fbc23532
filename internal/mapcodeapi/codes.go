package mapcodeapi

import (
	"context"
	"fmt"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
)

// CodesResponse is the response of /mapcode/codes/{lat},{lon}.
type CodesResponse struct {
	Local         *CodeEntry  `json:"local,omitempty"`
	International *CodeEntry  `json:"international,omitempty"`
	Mapcodes      []CodeEntry `json:"mapcodes"`
}

// CodeEntry is one mapcode in a codes response.
type CodeEntry struct {
	Mapcode              string `json:"mapcode"`
	MapcodeInAlphabet    string `json:"mapcodeInAlphabet,omitempty"`
	Territory            string `json:"territory,omitempty"`
	TerritoryInAlphabet  string `json:"territoryInAlphabet,omitempty"`
	TerritoryPlusMapcode string `json:"territoryPlusMapcode,omitempty"`
}

func (e *CodeEntry) toMapcode() mapcode.Mapcode {
	if e == nil {
		return mapcode.Mapcode{}
	}
	return mapcode.Mapcode{Territory: e.Territory, Code: e.Mapcode}
}

// Result converts the response into a result set.
func (r *CodesResponse) Result() (*mapcode.Result, error) {
	alternatives := make([]mapcode.Mapcode, 0, len(r.Mapcodes))
	for i := range r.Mapcodes {
		alternatives = append(alternatives, r.Mapcodes[i].toMapcode())
	}

	international := r.International.toMapcode()
	if international.IsZero() && len(alternatives) > 0 {
		international = alternatives[len(alternatives)-1]
	}
	return mapcode.BuildResult(r.Local.toMapcode(), international, alternatives)
}

// Codes returns all mapcodes for a coordinate.
func (c *Client) Codes(ctx context.Context, coord geo.Coordinate) (*CodesResponse, error) {
	path := "/mapcode/codes/" + coord.PathParam()

	var resp CodesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get codes for %s: %w", coord, err)
	}
	return &resp, nil
}

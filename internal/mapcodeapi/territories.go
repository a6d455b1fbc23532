package mapcodeapi

import (
	"context"
	"fmt"
)

// TerritoriesResponse is the response of /mapcode/territories/.
type TerritoriesResponse struct {
	Total       int         `json:"total"`
	Territories []Territory `json:"territories"`
}

// Territory describes one territory known to the API.
type Territory struct {
	AlphaCode       string   `json:"alphaCode"`
	FullName        string   `json:"fullName"`
	ParentTerritory string   `json:"parentTerritory,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
}

// Territories returns every territory with its full name.
func (c *Client) Territories(ctx context.Context) (*TerritoriesResponse, error) {
	var resp TerritoriesResponse
	if err := c.get(ctx, "/mapcode/territories/", &resp); err != nil {
		return nil, fmt.Errorf("get territories: %w", err)
	}
	if len(resp.Territories) == 0 {
		return nil, fmt.Errorf("get territories: empty territory list")
	}
	return &resp, nil
}

// Names returns the alpha code to full name mapping.
func (r *TerritoriesResponse) Names() map[string]string {
	names := make(map[string]string, len(r.Territories))
	for _, t := range r.Territories {
		if t.AlphaCode == "" || t.FullName == "" {
			continue
		}
		names[t.AlphaCode] = t.FullName
	}
	return names
}

package session

import (
	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/source"
)

// View is a snapshot of the session state for display.
type View struct {
	Session  string         `json:"session"`
	Location geo.Coordinate `json:"location"`

	Address        string `json:"address"`
	AddressWaiting bool   `json:"address_waiting"`

	Result         *mapcode.Result `json:"result,omitempty"`
	Mapcode        string          `json:"mapcode"`
	MapcodeLabel   string          `json:"mapcode_label"`
	Context        string          `json:"context,omitempty"`
	ContextLabel   string          `json:"context_label"`
	TerritoryName  string          `json:"territory_name,omitempty"`
	MapcodeWaiting bool            `json:"mapcode_waiting"`

	Mode  source.Mode `json:"mode"`
	Alert *Alert      `json:"alert,omitempty"`
}

// Alert is a message for the user, shown once.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (a *Alert) String() string {
	if a == nil {
		return ""
	}
	return a.Title + ": " + a.Message
}

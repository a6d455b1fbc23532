// Package output handles output formatting.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hightemp/mapcode/internal/geo"
	"github.com/hightemp/mapcode/internal/mapcode"
	"github.com/hightemp/mapcode/internal/session"
	"github.com/hightemp/mapcode/internal/territory"
)

// Entry is one mapcode of an encode result.
type Entry struct {
	Mapcode       string `json:"mapcode"`
	Territory     string `json:"territory"`
	TerritoryName string `json:"territory_name"`
}

// LookupResult contains the result of an encode or decode lookup. Encode
// results carry Mapcodes; decode results only a Location.
type LookupResult struct {
	Input    string          `json:"input"`
	Location *geo.Coordinate `json:"location,omitempty"`
	Mapcodes []Entry         `json:"mapcodes,omitempty"`
	Source   string          `json:"source,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// NewEncodeResult builds the output for the mapcodes of a location.
func NewEncodeResult(input string, c geo.Coordinate, r *mapcode.Result, names territory.Table, source string) *LookupResult {
	res := &LookupResult{Input: input, Location: &c, Source: source}
	if r == nil {
		return res
	}
	for i, m := range r.Mapcodes {
		code := r.Territories[i]
		res.Mapcodes = append(res.Mapcodes, Entry{
			Mapcode:       m,
			Territory:     code,
			TerritoryName: names.Name(code),
		})
	}
	return res
}

// NewDecodeResult builds the output for the location of a mapcode.
func NewDecodeResult(input string, c geo.Coordinate, source string) *LookupResult {
	return &LookupResult{Input: input, Location: &c, Source: source}
}

// NewErrorResult builds the output for a failed lookup.
func NewErrorResult(input string, err error) *LookupResult {
	return &LookupResult{Input: input, Error: err.Error()}
}

// FormatText formats result as tab-separated text: one line per mapcode
// for encode results, one "input lat lon" line for decode results.
func (r *LookupResult) FormatText() string {
	if r.Error != "" {
		return FormatError(r.Input, r.Error)
	}

	if len(r.Mapcodes) > 0 {
		lines := make([]string, 0, len(r.Mapcodes))
		for _, m := range r.Mapcodes {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s",
				r.Input, m.Mapcode, m.Territory, m.TerritoryName))
		}
		return strings.Join(lines, "\n")
	}

	if r.Location == nil {
		return FormatError(r.Input, "no result")
	}
	return fmt.Sprintf("%s\t%.6f\t%.6f", r.Input, r.Location.Lat, r.Location.Lon)
}

// FormatJSON formats result as JSON.
func (r *LookupResult) FormatJSON() (string, error) {
	return formatJSON(r)
}

// BatchResult contains results for batch processing.
type BatchResult struct {
	Results []*LookupResult
}

// FormatText formats batch results as text.
func (b *BatchResult) FormatText() string {
	var lines []string
	for _, r := range b.Results {
		lines = append(lines, r.FormatText())
	}
	return strings.Join(lines, "\n")
}

// FormatJSON formats batch results as JSON array.
func (b *BatchResult) FormatJSON() (string, error) {
	if b.Results == nil {
		return "[]", nil
	}
	return formatJSON(b.Results)
}

// FormatError formats an error line for text output.
func FormatError(input, msg string) string {
	return fmt.Sprintf("%s\t-\t-\tERROR: %s", input, msg)
}

// TerritoryEntry is one row of the territory listing.
type TerritoryEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Territories lists a territory table sorted by code.
func Territories(t territory.Table) []TerritoryEntry {
	codes := t.Codes()
	out := make([]TerritoryEntry, 0, len(codes))
	for _, code := range codes {
		out = append(out, TerritoryEntry{Code: code, Name: t[code]})
	}
	return out
}

// FormatTerritoriesText formats a territory table as "CODE\tName" lines.
func FormatTerritoriesText(t territory.Table) string {
	var b strings.Builder
	for i, e := range Territories(t) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Code)
		b.WriteByte('\t')
		b.WriteString(e.Name)
	}
	return b.String()
}

// FormatTerritoriesJSON formats a territory table as a JSON array.
func FormatTerritoriesJSON(t territory.Table) (string, error) {
	return formatJSON(Territories(t))
}

// FormatView renders a session view as one status line, followed by an
// alert line when the view carries one.
func FormatView(v session.View) string {
	address := v.Address
	if v.AddressWaiting {
		address = "..."
	} else if address == "" {
		address = "-"
	}

	code := v.Mapcode
	if v.MapcodeWaiting && code == "" {
		code = "..."
	} else if code == "" {
		code = "-"
	}

	parts := []string{v.Location.String(), address, code}
	if v.MapcodeLabel != "" {
		parts = append(parts, v.MapcodeLabel)
	}
	if v.TerritoryName != "" {
		parts = append(parts, v.TerritoryName)
	}
	if v.ContextLabel != "" {
		parts = append(parts, v.ContextLabel)
	}
	parts = append(parts, string(v.Mode))

	line := strings.Join(parts, "\t")
	if v.Alert != nil {
		line += "\nALERT: " + v.Alert.String()
	}
	return line
}

// FormatViewJSON formats a session view as single-line JSON.
func FormatViewJSON(v session.View) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

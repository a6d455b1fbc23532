package mapcode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoInternational is returned when a lookup produced no international code.
var ErrNoInternational = errors.New("no international mapcode")

// Result is the set of mapcodes for one location. Mapcodes and Territories
// are parallel: Territories[i] is the context of Mapcodes[i]. The shortest
// local code comes first and the international code is always last, with
// territory International.
type Result struct {
	Mapcodes    []string `json:"mapcodes"`
	Territories []string `json:"territories"`
}

// BuildResult assembles a result from a lookup response. alternatives lists
// every mapcode for the location with the international one last, as
// returned by the API; local is the shortest code of the preferred territory.
func BuildResult(local, international Mapcode, alternatives []Mapcode) (*Result, error) {
	if international.IsZero() {
		return nil, ErrNoInternational
	}

	r := &Result{}
	if len(alternatives) >= 2 {
		localFull := local.Full()
		if !local.IsZero() {
			r.add(localFull, local.Territory)
		}
		for _, alt := range alternatives[:len(alternatives)-1] {
			if alt.IsZero() {
				continue
			}
			if !local.IsZero() && alt.Full() == localFull {
				continue
			}
			r.add(alt.Full(), alt.Territory)
		}
	}
	r.add(international.Code, International)
	return r, nil
}

func (r *Result) add(code, territory string) {
	if territory == "" {
		territory = International
	}
	r.Mapcodes = append(r.Mapcodes, code)
	r.Territories = append(r.Territories, territory)
}

// Validate checks the lock-step and international-last invariants.
func (r *Result) Validate() error {
	if r == nil || len(r.Mapcodes) == 0 {
		return ErrNoInternational
	}
	if len(r.Mapcodes) != len(r.Territories) {
		return fmt.Errorf("result has %d mapcodes but %d territories", len(r.Mapcodes), len(r.Territories))
	}
	if r.Territories[len(r.Territories)-1] != International {
		return fmt.Errorf("last mapcode %q is not international", r.Mapcodes[len(r.Mapcodes)-1])
	}
	return nil
}

// International returns the international mapcode.
func (r *Result) International() string {
	if r == nil || len(r.Mapcodes) == 0 {
		return ""
	}
	return r.Mapcodes[len(r.Mapcodes)-1]
}

// Shortest returns the first mapcode of the result.
func (r *Result) Shortest() string {
	if r == nil || len(r.Mapcodes) == 0 {
		return ""
	}
	return r.Mapcodes[0]
}

// Contexts returns the distinct local territories in order of appearance.
func (r *Result) Contexts() []string {
	if r == nil {
		return nil
	}
	var contexts []string
	seen := make(map[string]bool)
	for _, t := range r.Territories {
		if t == International || seen[t] {
			continue
		}
		seen[t] = true
		contexts = append(contexts, t)
	}
	return contexts
}

// InContext returns the mapcodes of one territory followed by the
// international code. An empty context selects every local mapcode.
func (r *Result) InContext(context string) []string {
	if r == nil || len(r.Mapcodes) == 0 {
		return nil
	}
	var out []string
	last := len(r.Mapcodes) - 1
	for i, m := range r.Mapcodes[:last] {
		if context == "" || r.Territories[i] == context {
			out = append(out, m)
		}
	}
	return append(out, r.Mapcodes[last])
}

// Entries returns every entry of r as Mapcode values.
func (r *Result) Entries() []Mapcode {
	if r == nil {
		return nil
	}
	out := make([]Mapcode, len(r.Mapcodes))
	for i, m := range r.Mapcodes {
		code := m
		if r.Territories[i] != International {
			code = strings.TrimPrefix(m, r.Territories[i]+" ")
		}
		out[i] = Mapcode{Territory: r.Territories[i], Code: code}
	}
	return out
}

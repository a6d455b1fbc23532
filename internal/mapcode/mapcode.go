// Package mapcode holds the mapcode result set for a location and the
// selection state used to step through contexts and alternatives.
package mapcode

import (
	"regexp"
	"strings"
)

// International is the territory code of the context-free mapcode.
const International = "AAA"

// maxUnqualifiedLength is the length below which a code without a space is
// assumed to be a local code that needs a territory prefix.
const maxUnqualifiedLength = 10

var syntax = regexp.MustCompile(
	`^\s*(?:[a-zA-Z0-9]{2,3}(?:-[a-zA-Z0-9]{2,3})?\s+)?[a-zA-Z0-9]{2,5}\.[a-zA-Z0-9]{2,4}(?:-[a-zA-Z0-9]{1,8})?\s*$`)

// Mapcode is a code with the territory it is relative to.
type Mapcode struct {
	Territory string `json:"territory,omitempty"`
	Code      string `json:"mapcode"`
}

// Full returns "TERRITORY CODE", or only the code for international mapcodes.
func (m Mapcode) Full() string {
	if m.Territory == "" || m.Territory == International {
		return m.Code
	}
	return m.Territory + " " + m.Code
}

// IsZero reports whether the mapcode is empty.
func (m Mapcode) IsZero() bool {
	return m.Code == ""
}

// IsMapcode reports whether s has the shape of a (possibly territory
// prefixed) mapcode, e.g. "NLD 49.4V" or "VHXGB.1J9J".
func IsMapcode(s string) bool {
	return syntax.MatchString(s)
}

// Split separates an optional territory prefix from the code. Anything
// after the second field stays in Code, so the result is not a valid
// mapcode.
func Split(s string) Mapcode {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return Mapcode{}
	case 1:
		return Mapcode{Code: fields[0]}
	default:
		return Mapcode{Territory: strings.ToUpper(fields[0]), Code: strings.Join(fields[1:], " ")}
	}
}

// Normalize upper-cases a mapcode and collapses its whitespace, so
// "nld  49.4v" becomes "NLD 49.4V".
func Normalize(s string) string {
	m := Split(s)
	m.Code = strings.ToUpper(m.Code)
	return m.Full()
}

// Qualify prefixes context to short codes that carry no territory.
func Qualify(code, context string) string {
	code = strings.TrimSpace(code)
	if context == "" || context == International {
		return code
	}
	if len(code) < maxUnqualifiedLength && !strings.Contains(code, " ") {
		return context + " " + code
	}
	return code
}

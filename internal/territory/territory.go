// Package territory provides mapcode territory codes and display names.
package territory

import (
	"bufio"
	_ "embed"
	"sort"
	"strings"
	"sync"
)

//go:embed territories.txt
var territoriesData string

var (
	embedded     Table
	embeddedOnce sync.Once
)

// Table maps territory alpha codes (e.g. "NLD", "US-CA") to full names.
type Table map[string]string

// Embedded returns the built-in territory table. The returned table is shared
// and must not be modified; use Merge to build a new one.
func Embedded() Table {
	embeddedOnce.Do(func() {
		embedded = Parse(territoriesData)
	})
	return embedded
}

// Parse reads "CODE,Name|Alias..." lines; the first name is the display name.
// Blank lines and lines starting with '#' are ignored.
func Parse(content string) Table {
	t := make(Table, 600)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		code := normalize(parts[0])
		names := strings.Split(parts[1], "|")
		name := strings.TrimSpace(names[0])
		if code == "" || name == "" {
			continue
		}
		t[code] = name
	}
	return t
}

// FromNames builds a table from an alpha code to name mapping, such as the
// one returned by the territories endpoint.
func FromNames(names map[string]string) Table {
	t := make(Table, len(names))
	for code, name := range names {
		code = normalize(code)
		name = strings.TrimSpace(name)
		if code == "" || name == "" {
			continue
		}
		t[code] = name
	}
	return t
}

// Merge returns a new table with the entries of t overriding those of base.
func (t Table) Merge(base Table) Table {
	out := make(Table, len(base)+len(t))
	for code, name := range base {
		out[code] = name
	}
	for code, name := range t {
		out[code] = name
	}
	return out
}

// Name returns the full name for code, falling back to the embedded table.
// Unknown codes are returned unchanged.
func (t Table) Name(code string) string {
	key := normalize(code)
	if name, ok := t[key]; ok {
		return name
	}
	if name, ok := Embedded()[key]; ok {
		return name
	}
	return code
}

// Valid reports whether code is a known territory.
func (t Table) Valid(code string) bool {
	key := normalize(code)
	if _, ok := t[key]; ok {
		return true
	}
	_, ok := Embedded()[key]
	return ok
}

// Len returns the number of territories in the table.
func (t Table) Len() int {
	return len(t)
}

// Codes returns all codes in sorted order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

package mapcode

import (
	"errors"
	"reflect"
	"testing"
)

func amsterdam(t *testing.T) *Result {
	t.Helper()
	r, err := BuildResult(
		Mapcode{Territory: "NLD", Code: "49.4V"},
		Mapcode{Code: "VHXGB.1J9J"},
		[]Mapcode{
			{Territory: "NLD", Code: "49.4V"},
			{Territory: "NLD", Code: "G9.VWG"},
			{Territory: "NLD", Code: "DL6.H9L"},
			{Territory: "NLD", Code: "P25Z.N3Z"},
			{Code: "VHXGB.1J9J"},
		},
	)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}
	return r
}

func border(t *testing.T) *Result {
	t.Helper()
	r, err := BuildResult(
		Mapcode{Territory: "BEL", Code: "XR.KW"},
		Mapcode{Code: "VJ0L6.9PNQ"},
		[]Mapcode{
			{Territory: "BEL", Code: "XR.KW"},
			{Territory: "NLD", Code: "R8.3C"},
			{Territory: "BEL", Code: "LT1.T2"},
			{Territory: "NLD", Code: "GK4.Z8Q"},
			{Territory: "AAA", Code: "VJ0L6.9PNQ"},
		},
	)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}
	return r
}

func TestBuildResult(t *testing.T) {
	r := amsterdam(t)

	expected := []string{"NLD 49.4V", "NLD G9.VWG", "NLD DL6.H9L", "NLD P25Z.N3Z", "VHXGB.1J9J"}
	if !reflect.DeepEqual(r.Mapcodes, expected) {
		t.Errorf("Mapcodes = %v, expected %v", r.Mapcodes, expected)
	}
	if len(r.Territories) != len(r.Mapcodes) {
		t.Fatalf("Territories has %d entries, expected %d", len(r.Territories), len(r.Mapcodes))
	}
	if r.Territories[len(r.Territories)-1] != International {
		t.Errorf("last territory = %s, expected %s", r.Territories[len(r.Territories)-1], International)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if r.Shortest() != "NLD 49.4V" {
		t.Errorf("Shortest = %s", r.Shortest())
	}
	if r.International() != "VHXGB.1J9J" {
		t.Errorf("International = %s", r.International())
	}
}

func TestBuildResultInternationalOnly(t *testing.T) {
	// Open sea: only the international code exists.
	r, err := BuildResult(Mapcode{}, Mapcode{Code: "PQ0PF.5M1H"}, []Mapcode{{Code: "PQ0PF.5M1H"}})
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}
	if !reflect.DeepEqual(r.Mapcodes, []string{"PQ0PF.5M1H"}) {
		t.Errorf("Mapcodes = %v", r.Mapcodes)
	}
	if !reflect.DeepEqual(r.Territories, []string{International}) {
		t.Errorf("Territories = %v", r.Territories)
	}
	if len(r.Contexts()) != 0 {
		t.Errorf("Contexts = %v, expected none", r.Contexts())
	}
}

func TestBuildResultMissingInternational(t *testing.T) {
	_, err := BuildResult(Mapcode{Territory: "NLD", Code: "49.4V"}, Mapcode{}, nil)
	if !errors.Is(err, ErrNoInternational) {
		t.Errorf("expected ErrNoInternational, got %v", err)
	}
}

func TestContexts(t *testing.T) {
	r := border(t)
	if got := r.Contexts(); !reflect.DeepEqual(got, []string{"BEL", "NLD"}) {
		t.Errorf("Contexts = %v, expected [BEL NLD]", got)
	}
	if got := r.InContext("NLD"); !reflect.DeepEqual(got, []string{"NLD R8.3C", "NLD GK4.Z8Q", "VJ0L6.9PNQ"}) {
		t.Errorf("InContext(NLD) = %v", got)
	}
}

func TestSelectionLabels(t *testing.T) {
	r := amsterdam(t)
	var s Selection

	tests := []struct {
		mapcode string
		label   string
	}{
		{"NLD 49.4V", "SHORTEST (+3 ALT.)"},
		{"NLD G9.VWG", "ALTERNATIVE 1"},
		{"NLD DL6.H9L", "ALTERNATIVE 2"},
		{"NLD P25Z.N3Z", "ALTERNATIVE 3"},
		{"VHXGB.1J9J", "INTERNATIONAL"},
		{"NLD 49.4V", "SHORTEST (+3 ALT.)"},
	}

	for i, tc := range tests {
		if got := s.Current(r); got != tc.mapcode {
			t.Errorf("step %d: Current = %s, expected %s", i, got, tc.mapcode)
		}
		if got := s.Label(r); got != tc.label {
			t.Errorf("step %d: Label = %s, expected %s", i, got, tc.label)
		}
		s.NextMapcode(r)
	}

	if got := s.ContextLabel(r); got != "CONTEXT" {
		t.Errorf("ContextLabel = %s, expected CONTEXT", got)
	}
}

func TestSelectionShortestOnly(t *testing.T) {
	r, err := BuildResult(
		Mapcode{Territory: "USA", Code: "JJXX.QK5"},
		Mapcode{Code: "S3L1L.HG5H"},
		[]Mapcode{{Territory: "USA", Code: "JJXX.QK5"}, {Code: "S3L1L.HG5H"}},
	)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}
	var s Selection
	if got := s.Label(r); got != LabelShortest {
		t.Errorf("Label = %s, expected %s", got, LabelShortest)
	}

	intl, _ := BuildResult(Mapcode{}, Mapcode{Code: "PQ0PF.5M1H"}, nil)
	if got := s.Label(intl); got != LabelInternational {
		t.Errorf("Label = %s, expected %s", got, LabelInternational)
	}
}

func TestSelectionNextContext(t *testing.T) {
	r := border(t)
	var s Selection

	if got := s.ContextLabel(r); got != "CONTEXT 1 OF 2" {
		t.Errorf("ContextLabel = %s", got)
	}
	s.NextMapcode(r)
	s.NextContext(r)
	if s.Mapcode != 0 {
		t.Errorf("NextContext should reset the mapcode index, got %d", s.Mapcode)
	}
	if got := s.ContextCode(r); got != "NLD" {
		t.Errorf("ContextCode = %s, expected NLD", got)
	}
	if got := s.Current(r); got != "NLD R8.3C" {
		t.Errorf("Current = %s, expected NLD R8.3C", got)
	}
	s.NextContext(r)
	if got := s.ContextCode(r); got != "BEL" {
		t.Errorf("ContextCode = %s, expected BEL after wrapping", got)
	}
}

func TestSelectionRebase(t *testing.T) {
	prev := border(t)
	s := Selection{Context: 1, Mapcode: 2}

	next, err := BuildResult(
		Mapcode{Territory: "BEL", Code: "XR.KX"},
		Mapcode{Code: "VJ0L6.9PNR"},
		[]Mapcode{
			{Territory: "BEL", Code: "XR.KX"},
			{Territory: "NLD", Code: "R8.3D"},
			{Code: "VJ0L6.9PNR"},
		},
	)
	if err != nil {
		t.Fatalf("BuildResult failed: %v", err)
	}

	got := s.Rebase(prev, next)
	if got.Context != 1 || got.Mapcode != 0 {
		t.Errorf("Rebase = %+v, expected context 1 (NLD), mapcode 0", got)
	}

	got = s.Rebase(prev, amsterdam(t))
	if got.Context != 0 {
		t.Errorf("Rebase into NLD-only result = %+v, expected context 0", got)
	}
}

func TestIsMapcode(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"NLD 49.4V", true},
		{"49.4V", true},
		{"  VHXGB.1J9J ", true},
		{"US-CA 4Z.LZ", true},
		{"NLD 49.4V-K2", true},
		{"Damrak 1, Amsterdam", false},
		{"52.37,4.89", false},
		{"NLD 49", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsMapcode(tc.input); got != tc.expected {
			t.Errorf("IsMapcode(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestQualify(t *testing.T) {
	tests := []struct {
		code, context, expected string
	}{
		{"49.4V", "NLD", "NLD 49.4V"},
		{"NLD 49.4V", "BEL", "NLD 49.4V"},
		{"VHXGB.1J9J", "NLD", "VHXGB.1J9J"},
		{"49.4V", "", "49.4V"},
		{"49.4V", International, "49.4V"},
	}

	for _, tc := range tests {
		if got := Qualify(tc.code, tc.context); got != tc.expected {
			t.Errorf("Qualify(%q, %q) = %q, expected %q", tc.code, tc.context, got, tc.expected)
		}
	}
}

func TestSplitAndEntries(t *testing.T) {
	if got := Split("nld 49.4V"); got != (Mapcode{Territory: "NLD", Code: "49.4V"}) {
		t.Errorf("Split = %+v", got)
	}
	if got := Split("VHXGB.1J9J"); got != (Mapcode{Code: "VHXGB.1J9J"}) {
		t.Errorf("Split = %+v", got)
	}

	if got := Split("NLD 49.4V X"); got.Code != "49.4V X" {
		t.Errorf("Split kept %q, expected the trailing field in Code", got.Code)
	}

	tests := []struct {
		input, expected string
	}{
		{"nld  49.4v", "NLD 49.4V"},
		{" vhxgb.1j9j ", "VHXGB.1J9J"},
		{"AAA VHXGB.1J9J", "VHXGB.1J9J"},
		{"us-ca 8r.ww", "US-CA 8R.WW"},
		{"nld 49.4v extra", "NLD 49.4V EXTRA"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}

	entries := amsterdam(t).Entries()
	if entries[0] != (Mapcode{Territory: "NLD", Code: "49.4V"}) {
		t.Errorf("Entries[0] = %+v", entries[0])
	}
	last := entries[len(entries)-1]
	if last != (Mapcode{Territory: International, Code: "VHXGB.1J9J"}) {
		t.Errorf("last entry = %+v", last)
	}
}

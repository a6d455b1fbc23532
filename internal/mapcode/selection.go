package mapcode

import "fmt"

// Labels shown next to the selected mapcode.
const (
	LabelInternational = "INTERNATIONAL"
	LabelShortest      = "SHORTEST"
	LabelContext       = "CONTEXT"
)

// Selection tracks which context and which alternative within that context
// is shown for a result.
type Selection struct {
	Context int `json:"context"`
	Mapcode int `json:"mapcode"`
}

// Rebase returns the selection to use for next when the previous result was
// prev: the previously selected context is kept if next still has it, and
// the mapcode index restarts at the shortest code.
func (s Selection) Rebase(prev, next *Result) Selection {
	out := Selection{}
	prevContext := s.ContextCode(prev)
	if prevContext == "" {
		return out
	}
	for i, c := range next.Contexts() {
		if c == prevContext {
			out.Context = i
			break
		}
	}
	return out
}

// ContextCode returns the selected territory code, or "" if r has no
// local contexts.
func (s Selection) ContextCode(r *Result) string {
	contexts := r.Contexts()
	if len(contexts) == 0 {
		return ""
	}
	return contexts[s.Context%len(contexts)]
}

// Candidates returns the mapcodes available in the selected context.
func (s Selection) Candidates(r *Result) []string {
	return r.InContext(s.ContextCode(r))
}

// Current returns the selected mapcode; an index past the end wraps to the
// shortest one.
func (s *Selection) Current(r *Result) string {
	candidates := s.Candidates(r)
	if len(candidates) == 0 {
		return ""
	}
	if s.Mapcode >= len(candidates) || s.Mapcode < 0 {
		s.Mapcode = 0
	}
	return candidates[s.Mapcode]
}

// Label describes the selected mapcode.
func (s *Selection) Label(r *Result) string {
	_ = s.Current(r)
	count := len(s.Candidates(r))
	switch {
	case count <= 1:
		return LabelInternational
	case s.Mapcode == 0 && count == 2:
		return LabelShortest
	case s.Mapcode == 0:
		return fmt.Sprintf("%s (+%d ALT.)", LabelShortest, count-2)
	case s.Mapcode == count-1:
		return LabelInternational
	default:
		return fmt.Sprintf("ALTERNATIVE %d", s.Mapcode)
	}
}

// ContextLabel describes the selected context.
func (s Selection) ContextLabel(r *Result) string {
	n := len(r.Contexts())
	if n <= 1 {
		return LabelContext
	}
	return fmt.Sprintf("%s %d OF %d", LabelContext, s.Context%n+1, n)
}

// NextContext moves to the next context and back to its shortest mapcode.
func (s *Selection) NextContext(r *Result) {
	n := len(r.Contexts())
	if n == 0 {
		s.Context = 0
	} else {
		s.Context = (s.Context + 1) % n
	}
	s.Mapcode = 0
}

// NextMapcode moves to the next alternative, wrapping after international.
func (s *Selection) NextMapcode(r *Result) {
	s.Mapcode++
	_ = s.Current(r)
}

// Package classifier scores user text against labeled keyword sets. It backs
// room detection, stamp assignment and persona story matching.
package classifier

import "strings"

// Entry is one labeled keyword set inside a scope.
type Entry struct {
	Scope    string
	Label    string
	Keywords []string
}

// Score is the match count of one label.
type Score struct {
	Label string
	Score int
}

// Table is an in-memory keyword table. Entries keep registration order, which
// breaks ties.
type Table struct {
	entries  []Entry
	defaults map[string]string
}

func NewTable(entries []Entry) *Table {
	t := &Table{defaults: make(map[string]string)}
	for _, e := range entries {
		t.Register(e)
	}
	return t
}

// Register appends an entry. Keywords are lowercased once here.
func (t *Table) Register(e Entry) {
	kws := make([]string, 0, len(e.Keywords))
	for _, k := range e.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kws = append(kws, k)
		}
	}
	e.Keywords = kws
	t.entries = append(t.entries, e)
}

// SetDefault sets the label returned by Classify when nothing in scope matches.
func (t *Table) SetDefault(scope, label string) {
	t.defaults[scope] = label
}

// Scores counts case-insensitive substring hits per label of the scope, in
// registration order. An empty scope scores every entry.
func (t *Table) Scores(text, scope string) []Score {
	lower := strings.ToLower(text)
	out := make([]Score, 0, len(t.entries))
	for _, e := range t.entries {
		if scope != "" && e.Scope != scope {
			continue
		}
		out = append(out, Score{Label: e.Label, Score: countHits(lower, e.Keywords)})
	}
	return out
}

// Classify returns the best label of the scope and its score. Ties go to the
// earliest registered label; a zero best score yields the scope default.
func (t *Table) Classify(text, scope string) (string, int) {
	best, ok := argmax(t.Scores(text, scope))
	if !ok || best.Score == 0 {
		return t.defaults[scope], 0
	}
	return best.Label, best.Score
}

// Labels returns the labels of a scope in registration order.
func (t *Table) Labels(scope string) []string {
	var out []string
	for _, e := range t.entries {
		if e.Scope == scope {
			out = append(out, e.Label)
		}
	}
	return out
}

func argmax(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}

func countHits(lower string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += strings.Count(lower, k)
	}
	return n
}

// containsAny reports whether lowercased text contains any of the phrases.
func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

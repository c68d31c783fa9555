package roster

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultCutoff is the minimum similarity score (0–100) a fuzzy candidate
// needs to be accepted as a match.
const DefaultCutoff = 70

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithCutoff sets the minimum similarity score (0–100) required for a fuzzy
// match. Default: [DefaultCutoff].
func WithCutoff(cutoff float64) Option {
	return func(m *Matcher) {
		m.cutoff = cutoff
	}
}

// Matcher resolves a dictated identifier — a roll-number, a full name, or a
// misheard fragment of either — to exactly one [Student].
//
// Resolution is exact-match-first: the lowercased identifier is compared
// against every lowercased roll-number, then every lowercased name. Only when
// both exact passes fail does the matcher fall back to Levenshtein-based
// similarity, accepting the best-scoring key at or above the cutoff.
// Ambiguity is never surfaced as a list; the best candidate wins or nothing
// does.
//
// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	cutoff float64
}

// NewMatcher returns a [Matcher] configured with the supplied options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{cutoff: DefaultCutoff}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match resolves identifier against the given roster snapshot. The snapshot
// is treated as a point-in-time copy; Match never mutates it.
//
// The returned bool reports whether a student was found. When it is false the
// Student value is the zero value.
func (m *Matcher) Match(identifier string, students []Student) (Student, bool) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" || len(students) == 0 {
		return Student{}, false
	}

	// Exact roll-number match first, then exact name match.
	for _, s := range students {
		if strings.ToLower(s.USN) == id {
			return s, true
		}
	}
	for _, s := range students {
		if strings.ToLower(s.Name) == id {
			return s, true
		}
	}

	// Fuzzy pass: score every lookup key, keep the first best.
	var (
		best      Student
		bestScore float64
		found     bool
	)
	for _, s := range students {
		for _, key := range []string{strings.ToLower(s.USN), strings.ToLower(s.Name)} {
			score := Similarity(id, key)
			if score >= m.cutoff && score > bestScore {
				best = s
				bestScore = score
				found = true
			}
		}
	}
	return best, found
}

// Similarity computes a 0–100 similarity score between two lowercased
// strings. The score is the best of two Levenshtein-ratio comparisons:
//
//  1. Full-string comparison.
//  2. Best pairwise token comparison — the maximum ratio between any token of
//     a and any token of b. This lets a dictated first name ("aloka") resolve
//     against a full roster name ("aloha smith").
func Similarity(a, b string) float64 {
	score := levenshteinRatio(a, b)

	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	if len(aTokens) > 1 || len(bTokens) > 1 {
		for _, at := range aTokens {
			for _, bt := range bTokens {
				if s := levenshteinRatio(at, bt); s > score {
					score = s
				}
			}
		}
	}
	return score
}

// levenshteinRatio is the normalised Levenshtein similarity on a 0–100
// scale: 100 means identical, 0 means nothing in common.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 100
	}
	dist := matchr.Levenshtein(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

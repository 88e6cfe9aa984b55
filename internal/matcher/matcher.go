package matcher

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultThreshold is the minimum ratio for two names to count as the same
// person.
const DefaultThreshold = 80

// Matcher compares participant names from independently sourced files.
type Matcher struct {
	threshold int
	normalize bool
}

// New returns a Matcher. With normalize set, names are lower-cased and
// whitespace runs collapsed before comparison.
func New(threshold int, normalize bool) *Matcher {
	return &Matcher{threshold: threshold, normalize: normalize}
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() int { return m.threshold }

// Score returns the similarity ratio (0..100) of a and b.
func (m *Matcher) Score(a, b string) int {
	if m.normalize {
		a, b = normalizeName(a), normalizeName(b)
	}
	return Ratio(a, b)
}

// IsMatch reports whether a and b name the same person.
func (m *Matcher) IsMatch(a, b string) bool {
	return m.Score(a, b) >= m.threshold
}

// Ratio is the similarity of two strings as 2*M/T scaled to 0..100, where M
// is the number of runes in common subsequences and T the total rune count.
// Empty input scores 0.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	// diff heuristics are not guaranteed symmetric
	m := max(matchingRunes(a, b), matchingRunes(b, a))
	return int(math.Round(200 * float64(m) / float64(total)))
}

func matchingRunes(a, b string) int {
	dmp := diffmatchpatch.New()
	n := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			n += utf8.RuneCountInString(d.Text)
		}
	}
	return n
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

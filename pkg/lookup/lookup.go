// Package lookup matches free text queries against reference datasets.
//
// Three strategies are provided: exact name match, a permissive substring
// match over names and tags, and a keyword overlap score over two text
// fields. All comparisons are made on trimmed, lower-cased text. Functions
// are stateless and safe to use concurrently on shared, read-only datasets.
package lookup

import "strings"

// Keyed is a record that can be matched by name and tags
type Keyed interface {
	LookupName() string
	LookupTags() []string
}

// Document is a record that can be ranked by keyword overlap
type Document interface {
	LookupText() (string, string)
}

// Matcher resolves a query to a single record. It isolates the fuzzy
// strategy from callers so a stricter ranking can be swapped in.
type Matcher[T Keyed] interface {
	Match(query string, records []T) (T, bool)
}

// MinTokenLength is the shortest query token SearchScored takes into account
const MinTokenLength = 3

// Normalize trims and lower-cases s
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchExact returns the first record whose normalized name equals the query
func MatchExact[T Keyed](query string, records []T) (T, bool) {
	var zero T
	q := Normalize(query)
	if q == "" {
		return zero, false
	}
	for _, r := range records {
		if Normalize(r.LookupName()) == q {
			return r, true
		}
	}
	return zero, false
}

// MatchFuzzy tries MatchExact, then returns the first record whose name or
// space-joined tags contain the query. A short query can hit many records;
// the first one in dataset order is a best effort answer, not an
// authoritative one.
func MatchFuzzy[T Keyed](query string, records []T) (T, bool) {
	if r, ok := MatchExact(query, records); ok {
		return r, true
	}

	var zero T
	q := Normalize(query)
	if q == "" {
		return zero, false
	}
	for _, r := range records {
		if strings.Contains(Normalize(r.LookupName()), q) {
			return r, true
		}
		if tags := r.LookupTags(); len(tags) > 0 && strings.Contains(Normalize(strings.Join(tags, " ")), q) {
			return r, true
		}
	}
	return zero, false
}

// SearchScored ranks records by the number of query tokens (at least
// MinTokenLength characters long) contained in the concatenation of the two
// text fields of each record. The strictly highest positive score wins and
// ties keep the earliest record. No positive score means no match.
func SearchScored[T Document](query string, records []T) (T, bool) {
	var (
		best      T
		bestScore int
	)

	tokens := Tokens(query)
	if len(tokens) == 0 {
		return best, false
	}

	for _, r := range records {
		a, b := r.LookupText()
		text := Normalize(a + " " + b)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}

	return best, bestScore > 0
}

// Tokens splits a query into normalized whitespace separated tokens and
// drops the ones shorter than MinTokenLength
func Tokens(query string) []string {
	var tokens []string
	for _, f := range strings.Fields(Normalize(query)) {
		if len([]rune(f)) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Fuzzy is the default Matcher, backed by MatchFuzzy
type Fuzzy[T Keyed] struct{}

func (Fuzzy[T]) Match(query string, records []T) (T, bool) {
	return MatchFuzzy(query, records)
}

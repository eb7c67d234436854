package types

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSearchLimit is how many disciplines a search returns when the
// caller does not ask for a limit.
const DefaultSearchLimit = 5

// DisciplineQuery is a parsed free-text discipline search. A discipline
// matches when every query word is a prefix of some word of its
// "<code> - <name>" text. Case, accents and punctuation are ignored.
type DisciplineQuery struct {
	words []string
}

// ParseDisciplineQuery splits q into normalized search words.
func ParseDisciplineQuery(q string) DisciplineQuery {
	var words []string
	for _, field := range strings.Fields(fold(q)) {
		if w := strings.Map(keepAlnum, field); w != "" {
			words = append(words, w)
		}
	}
	return DisciplineQuery{words: words}
}

// Empty reports whether the query has no words. An empty query matches
// every discipline.
func (q DisciplineQuery) Empty() bool {
	return len(q.words) == 0
}

// Match reports whether d matches every query word.
func (q DisciplineQuery) Match(d *Discipline) bool {
	if q.Empty() {
		return true
	}
	indexed := searchWords(d.Code + " - " + d.Name)
	for _, w := range q.words {
		if !anyHasPrefix(indexed, w) {
			return false
		}
	}
	return true
}

// searchWords returns the words a discipline is found by: each word with
// only its letters and digits kept, plus its digits alone, so "INE5401"
// is found by "ine54" and by "5401".
func searchWords(s string) []string {
	var out []string
	for _, field := range strings.Fields(fold(s)) {
		w := strings.Map(keepAlnum, field)
		if w == "" {
			continue
		}
		out = append(out, w)
		if digits := strings.Map(keepDigit, field); digits != "" && digits != w {
			out = append(out, digits)
		}
	}
	return out
}

func anyHasPrefix(words []string, prefix string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

// fold lowercases s and strips combining marks, so "Introdução" folds to
// "introducao".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func keepAlnum(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

func keepDigit(r rune) rune {
	if unicode.IsDigit(r) {
		return r
	}
	return -1
}

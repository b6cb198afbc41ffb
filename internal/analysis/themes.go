package analysis

import (
	"iter"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// DefaultThemeCount is the number of terms TopTerms yields when n <= 0.
const DefaultThemeCount = 5

type termStat struct {
	term  string
	count int
}

// TopTerms yields the n highest weighted terms of a single document, after
// English stop word removal. Ties keep first-occurrence order.
//
// Weights are tf-idf over a one-document corpus, so idf is the same constant
// for every term and the ranking is plain term frequency.
func TopTerms(text string, n int) iter.Seq[string] {
	if n <= 0 {
		n = DefaultThemeCount
	}
	return func(yield func(string) bool) {
		ranked := rank(text)
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		for _, t := range ranked {
			if !yield(t.term) {
				return
			}
		}
	}
}

var rank = rankTerms

func rankTerms(text string) []termStat {
	// Pre-tokenize so punctuation never glues onto a stop word.
	cleaned := stopwords.CleanString(strings.Join(Tokenize(text), " "), "en", false)

	byTerm := make(map[string]*termStat)
	var order []*termStat
	for _, tok := range Tokenize(cleaned) {
		tok = strings.ToLower(tok)
		if isNumeric(tok) || len([]rune(tok)) < 2 {
			continue
		}
		st, ok := byTerm[tok]
		if !ok {
			st = &termStat{term: tok}
			byTerm[tok] = st
			order = append(order, st)
		}
		st.count++
	}

	const docs = 1
	idf := math.Log(float64(1+docs)/float64(1+docs)) + 1
	weight := func(s *termStat) float64 { return float64(s.count) * idf }

	out := make([]termStat, len(order))
	for i, s := range order {
		out[i] = *s
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weight(&out[i]) > weight(&out[j])
	})
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

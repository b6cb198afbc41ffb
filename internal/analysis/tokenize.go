// Package analysis holds the text analysis used on journal entries:
// tokenizing, lexicon sentiment, readability and theme extraction.
//
// Everything here is pure and safe for concurrent use.
package analysis

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// Tokenize splits text into word tokens on every rune that is not a letter,
// digit or apostrophe. Case is preserved; surrounding quotes are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Sentences splits text on runs of '.', '!' and '?'. Fragments are trimmed
// and empty ones discarded.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Words returns the whitespace-delimited words of text.
func Words(text string) []string {
	return strings.Fields(text)
}

func WordCount(text string) int {
	return len(Words(text))
}

// ReadingTime is the whole number of minutes needed to read wordCount words,
// rounded up.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(wordCount) / WordsPerMinute))
}

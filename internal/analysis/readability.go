package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	longSentenceWords  = 20
	easyReadingScore   = 60
	complexWordLength  = 6

	SuggestShorterSentences = "Consider breaking up long sentences to improve readability."
	SuggestSimplerWords     = "Consider using simpler words to improve readability."
)

var vowelGroup = regexp.MustCompile(`[aeiouy]+`)

type Readability struct {
	Score             float64  `json:"score"`
	Complexity        float64  `json:"complexity"`
	SentenceCount     int      `json:"sentenceCount"`
	WordCount         int      `json:"wordCount"`
	SyllableCount     int      `json:"syllableCount"`
	AvgSentenceLength float64  `json:"avgSentenceLength"`
	Suggestions       []string `json:"suggestions"`
}

// AnalyzeReadability computes the Flesch reading ease and a complexity score
// for text. The reading ease is 0 when text has no sentences or no words and
// is otherwise left unclamped.
func AnalyzeReadability(text string) Readability {
	sentences := Sentences(text)
	words := Words(text)

	r := Readability{
		SentenceCount: len(sentences),
		WordCount:     len(words),
		Suggestions:   []string{},
	}

	long := 0
	for _, w := range words {
		r.SyllableCount += CountSyllables(w)
		// Length is measured on the word as written, punctuation included.
		if len([]rune(w)) > complexWordLength {
			long++
		}
	}

	if r.WordCount == 0 {
		return r
	}
	r.Complexity = float64(long) / float64(r.WordCount) * 10

	if r.SentenceCount == 0 {
		return r
	}
	w, s := float64(r.WordCount), float64(r.SentenceCount)
	r.AvgSentenceLength = w / s
	r.Score = 206.835 - 1.015*(w/s) - 84.6*(float64(r.SyllableCount)/w)

	if r.AvgSentenceLength > longSentenceWords {
		r.Suggestions = append(r.Suggestions, SuggestShorterSentences)
	}
	if r.Score < easyReadingScore {
		r.Suggestions = append(r.Suggestions, SuggestSimplerWords)
	}
	return r
}

// CountSyllables estimates syllables as the number of vowel groups in the
// lowercased letters of word. A word without vowels counts 0.
func CountSyllables(word string) int {
	return len(vowelGroup.FindAllString(strings.ToLower(lettersOnly(word)), -1))
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

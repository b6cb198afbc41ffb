package analysis

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

//go:embed afinn.txt
var afinnData string

// Lexicon maps lowercase words to integer valence weights. It is immutable
// once built and can be shared between goroutines without locking.
type Lexicon struct {
	weights map[string]int
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the bundled AFINN-style lexicon. It is parsed on
// first use and reused afterwards.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		l, err := ParseLexicon(strings.NewReader(afinnData))
		if err != nil {
			panic(fmt.Sprintf("bundled lexicon: %v", err))
		}
		defaultLexicon = l
	})
	return defaultLexicon
}

// NewLexicon copies weights into a new lexicon, lowercasing the keys.
func NewLexicon(weights map[string]int) *Lexicon {
	l := &Lexicon{weights: make(map[string]int, len(weights))}
	for w, v := range weights {
		l.weights[strings.ToLower(w)] = v
	}
	return l
}

// ParseLexicon reads "word<TAB>weight" lines. Blank lines and lines starting
// with '#' are skipped. Multi-word phrases are allowed; the weight is the
// last field on the line.
func ParseLexicon(r io.Reader) (*Lexicon, error) {
	l := &Lexicon{weights: make(map[string]int)}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.LastIndexAny(line, " \t")
		if i <= 0 {
			return nil, fmt.Errorf("lexicon line %d: missing weight", lineNo)
		}
		word := strings.ToLower(strings.TrimSpace(line[:i]))
		weight, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", lineNo, err)
		}
		l.weights[word] = weight
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return l, nil
}

// LoadLexiconFile parses an AFINN-format file from disk.
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return ParseLexicon(f)
}

// Weight returns the valence of word, or 0 if it is not in the lexicon.
func (l *Lexicon) Weight(word string) int {
	return l.weights[strings.ToLower(word)]
}

func (l *Lexicon) Contains(word string) bool {
	_, ok := l.weights[strings.ToLower(word)]
	return ok
}

func (l *Lexicon) Len() int {
	return len(l.weights)
}

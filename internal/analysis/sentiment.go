package analysis

import "math"

type Mood string

const (
	MoodVeryPositive Mood = "very_positive"
	MoodPositive     Mood = "positive"
	MoodNeutral      Mood = "neutral"
	MoodNegative     Mood = "negative"
	MoodVeryNegative Mood = "very_negative"
)

// Moods lists every mood from most positive to most negative.
var Moods = []Mood{MoodVeryPositive, MoodPositive, MoodNeutral, MoodNegative, MoodVeryNegative}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// Raw is an unnormalized lexicon score.
type Raw struct {
	Score     float64
	Magnitude float64
}

// Scorer sums lexicon weights over tokens.
type Scorer struct {
	lexicon *Lexicon
	calib   Calibration
}

// NewScorer returns a scorer backed by lex. A nil lexicon means
// DefaultLexicon.
func NewScorer(lex *Lexicon) *Scorer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Scorer{lexicon: lex, calib: DefaultCalibration}
}

// WithCalibration returns a copy of s using c for normalization.
func (s *Scorer) WithCalibration(c Calibration) *Scorer {
	cp := *s
	cp.calib = c
	return &cp
}

func (s *Scorer) Lexicon() *Lexicon { return s.lexicon }

// Score sums the weight of every token. Unknown tokens count as 0.
func (s *Scorer) Score(tokens []string) Raw {
	var sum float64
	for _, t := range tokens {
		sum += float64(s.lexicon.Weight(t))
	}
	return Raw{Score: sum, Magnitude: math.Abs(sum)}
}

// Sentiment is a normalized score with its mood.
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
	Mood      Mood    `json:"mood"`
}

// Analyze tokenizes text and returns the normalized score, the magnitude of
// the raw score, and the mood.
func (s *Scorer) Analyze(text string) Sentiment {
	raw := s.Score(Tokenize(text))
	n := s.calib.Normalize(raw.Score)
	return Sentiment{Score: n, Magnitude: raw.Magnitude, Mood: ClassifyMood(n)}
}

// Calibration controls how raw lexicon sums are squashed into [-1, 1].
type Calibration struct {
	Divisor  float64
	Exponent float64
}

var DefaultCalibration = Calibration{Divisor: 2, Exponent: 0.7}

// Normalize clamps raw/Divisor into [-1, 1] and then applies a signed power
// curve so small scores are lifted away from zero.
func (c Calibration) Normalize(raw float64) float64 {
	clamped := math.Max(-1, math.Min(1, raw/c.Divisor))
	if clamped == 0 {
		return 0
	}
	sign := 1.0
	if clamped < 0 {
		sign = -1
	}
	return sign * math.Pow(math.Abs(clamped), c.Exponent)
}

// Normalize applies DefaultCalibration.
func Normalize(raw float64) float64 {
	return DefaultCalibration.Normalize(raw)
}

// ClassifyMood buckets a normalized score. The first matching rule wins:
//
//	>= 0.3        very_positive
//	>  0.1        positive
//	|n| <= 0.1    neutral
//	>= -0.3       negative
//	otherwise     very_negative
func ClassifyMood(n float64) Mood {
	switch {
	case n >= 0.3:
		return MoodVeryPositive
	case n > 0.1:
		return MoodPositive
	case math.Abs(n) <= 0.1:
		return MoodNeutral
	case n >= -0.3:
		return MoodNegative
	default:
		return MoodVeryNegative
	}
}

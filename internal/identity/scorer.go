package identity

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer rates how alike two normalized names are, in [0, 1].
type Scorer interface {
	Similarity(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

// Similarity calls f(a, b).
func (f ScorerFunc) Similarity(a, b string) float64 {
	return f(a, b)
}

// LevenshteinScorer scores by normalized edit distance: 1 - distance / longer length.
type LevenshteinScorer struct{}

// Similarity returns the edit-distance ratio of a and b.
func (LevenshteinScorer) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longer := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longer {
		longer = n
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longer)
}

// TokenScorer scores by cosine similarity of token frequency vectors.
// Insensitive to word order.
type TokenScorer struct{}

// Similarity returns the cosine similarity of the token vectors of a and b.
func (TokenScorer) Similarity(a, b string) float64 {
	va, na := termVector(a)
	vb, nb := termVector(b)
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for token, wa := range va {
		if wb, ok := vb[token]; ok {
			dot += wa * wb
		}
	}
	return dot / (na * nb)
}

func termVector(s string) (map[string]float64, float64) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, 0
	}
	v := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		v[t]++
	}
	var sum float64
	for _, c := range v {
		sum += c * c
	}
	return v, math.Sqrt(sum)
}

// MaxScorer returns the highest score of its scorers.
type MaxScorer []Scorer

// Similarity returns the maximum similarity reported by any scorer.
func (m MaxScorer) Similarity(a, b string) float64 {
	best := 0.0
	for _, s := range m {
		if v := s.Similarity(a, b); v > best {
			best = v
		}
	}
	return best
}

// ScorerByName returns a built-in scorer: "levenshtein", "token" or "max".
func ScorerByName(name string) (Scorer, bool) {
	switch name {
	case "", "levenshtein":
		return LevenshteinScorer{}, true
	case "token":
		return TokenScorer{}, true
	case "max":
		return MaxScorer{LevenshteinScorer{}, TokenScorer{}}, true
	}
	return nil, false
}

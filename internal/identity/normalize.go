package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultVariantSuffixes are trailing tokens that mark a build variant of the same title.
var DefaultVariantSuffixes = []string{
	"demo",
	"beta",
	"open beta",
	"closed beta",
	"alpha",
	"playtest",
	"prologue",
	"early access",
	"test",
}

// Normalizer reduces display names to a comparable form.
type Normalizer struct {
	suffixes [][]string // each suffix split into tokens, longest first
}

// NewNormalizer creates a normalizer stripping the given variant suffixes.
// Nil uses DefaultVariantSuffixes.
func NewNormalizer(suffixes []string) *Normalizer {
	if suffixes == nil {
		suffixes = DefaultVariantSuffixes
	}
	n := &Normalizer{}
	for _, s := range suffixes {
		tokens := tokenize(fold(s))
		if len(tokens) > 0 {
			n.suffixes = append(n.suffixes, tokens)
		}
	}
	// Multi-token suffixes must win over their single-token tails.
	for i := 1; i < len(n.suffixes); i++ {
		for j := i; j > 0 && len(n.suffixes[j]) > len(n.suffixes[j-1]); j-- {
			n.suffixes[j], n.suffixes[j-1] = n.suffixes[j-1], n.suffixes[j]
		}
	}
	return n
}

// Normalize case-folds, strips diacritics and punctuation, and removes
// trailing variant suffixes. A name that consists only of a suffix is kept.
func (n *Normalizer) Normalize(name string) string {
	tokens := tokenize(fold(name))
	for {
		stripped := false
		for _, suffix := range n.suffixes {
			if len(tokens) > len(suffix) && hasSuffix(tokens, suffix) {
				tokens = tokens[:len(tokens)-len(suffix)]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(tokens, " ")
}

// NormalizePublisher folds a publisher name for comparison.
func NormalizePublisher(publisher string) string {
	return strings.Join(tokenize(fold(publisher)), " ")
}

// fold lowercases with Unicode case folding and drops combining marks.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// tokenize splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasSuffix(tokens, suffix []string) bool {
	offset := len(tokens) - len(suffix)
	for i, s := range suffix {
		if tokens[offset+i] != s {
			return false
		}
	}
	return true
}

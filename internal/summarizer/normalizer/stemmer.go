package normalizer

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// SnowballStemmer stems with the Snowball algorithm for a fixed language.
type SnowballStemmer struct {
	language string
}

// NewSnowballStemmer checks that language is supported before returning.
func NewSnowballStemmer(language string) (*SnowballStemmer, error) {
	if _, err := snowball.Stem("testing", language, true); err != nil {
		return nil, fmt.Errorf("snowball stemmer: %w", err)
	}
	return &SnowballStemmer{language: language}, nil
}

func (s *SnowballStemmer) Stem(token string) string {
	stemmed, err := snowball.Stem(token, s.language, true)
	if err != nil {
		return token
	}
	return stemmed
}

// SuffixStemmer strips common English suffixes. It is cheaper and less
// aggressive than Snowball.
type SuffixStemmer struct{}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"ying", "y", 2},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"ed", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

func (SuffixStemmer) Stem(token string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(token, rule.suffix) {
			stemmed := token[:len(token)-len(rule.suffix)] + rule.replacement
			if len(stemmed) >= rule.minLen {
				return stemmed
			}
		}
	}
	return token
}

// NewStemmer resolves a configured stemmer by name. "none" returns nil.
func NewStemmer(name, language string) (Stemmer, error) {
	switch name {
	case "", "snowball":
		s, err := NewSnowballStemmer(language)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "suffix":
		return SuffixStemmer{}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}

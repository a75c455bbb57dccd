// Package normalizer reduces raw word tokens to the terms used for frequency
// modelling. It lower-cases input, keeps purely alphabetic tokens, removes
// stop-words, and optionally applies a stemmer.
package normalizer

import (
	"strings"
	"unicode"
)

// StopwordSet is an immutable set of lower-case stop-words.
type StopwordSet map[string]struct{}

// NewStopwordSet builds a set from the given words, lower-casing each.
func NewStopwordSet(words ...string) StopwordSet {
	set := make(StopwordSet, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Contains reports whether word is a stop-word.
func (s StopwordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Stemmer maps a lower-case token to its canonical base form.
type Stemmer interface {
	Stem(token string) string
}

// Normalizer holds the resources shared by every sentence of every call.
// It is safe for concurrent use.
type Normalizer struct {
	stopwords StopwordSet
	stemmer   Stemmer
}

// New creates a Normalizer. A nil stemmer leaves tokens unstemmed.
func New(stopwords StopwordSet, stemmer Stemmer) *Normalizer {
	if stopwords == nil {
		stopwords = StopwordSet{}
	}
	return &Normalizer{
		stopwords: stopwords,
		stemmer:   stemmer,
	}
}

// Normalize returns the normalized terms of one sentence, in token order.
// The result may be empty.
func (n *Normalizer) Normalize(tokens []string) []string {
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if !isAlpha(tok) {
			continue
		}
		if n.stopwords.Contains(tok) {
			continue
		}
		if n.stemmer != nil {
			tok = n.stemmer.Stem(tok)
			if tok == "" {
				continue
			}
		}
		terms = append(terms, tok)
	}
	return terms
}

// isAlpha reports whether s is non-empty and made only of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

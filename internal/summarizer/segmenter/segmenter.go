// Package segmenter splits a document into an ordered sequence of sentences
// and each sentence into raw word tokens. Boundary rules are supplied by the
// caller through SentenceSplitter and WordSplitter; the segmenter itself only
// assigns positions and drops empty segments.
package segmenter

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
)

// SentenceSplitter maps a document to its sentence strings in reading order.
type SentenceSplitter interface {
	Split(text string) []string
}

// WordSplitter maps one sentence to its word tokens in reading order.
type WordSplitter interface {
	Split(sentence string) []string
}

// Sentence is a sentence of the document identified by its position.
// Two sentences with the same text are distinct when their indices differ.
type Sentence struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Segment splits text into sentences and their raw word tokens. Indices are
// dense and start at 0. A document that yields no sentences returns an error
// wrapping ErrEmptyDocument.
func Segment(text string, sentences SentenceSplitter, words WordSplitter) ([]Sentence, [][]string, error) {
	parts := sentences.Split(text)
	result := make([]Sentence, 0, len(parts))
	tokens := make([][]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		result = append(result, Sentence{
			Index: len(result),
			Text:  part,
		})
		tokens = append(tokens, words.Split(part))
	}
	if len(result) == 0 {
		return nil, nil, fmt.Errorf("segmenting %d bytes: %w", len(text), apperrors.ErrEmptyDocument)
	}
	return result, tokens, nil
}

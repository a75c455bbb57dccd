// Package scorer rates each sentence by the document frequency of its terms.
package scorer

import (
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/frequency"
)

// SentenceScore is the score of the sentence at Index.
type SentenceScore struct {
	Index int `json:"index"`
	Score int `json:"score"`
}

// Score sums the document-wide counts of the sentence's terms, once per
// occurrence. A sentence without terms scores 0.
func Score(index int, terms []string, table *frequency.Table) SentenceScore {
	total := 0
	for _, term := range terms {
		total += table.Count(term)
	}
	return SentenceScore{Index: index, Score: total}
}

// ScoreAll scores every sentence; terms[i] belongs to the sentence with
// index i.
func ScoreAll(terms [][]string, table *frequency.Table) []SentenceScore {
	scores := make([]SentenceScore, len(terms))
	for i, t := range terms {
		scores[i] = Score(i, t, table)
	}
	return scores
}

// Package selector picks the sentences that make up a summary. Ranking by
// score decides which sentences are kept; the returned indices are always in
// document order.
package selector

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
)

// Select returns the indices of the n highest-scoring sentences in ascending
// order. Ties go to the earlier sentence. When there are no more than n
// sentences every index is returned without ranking.
func Select(scores []scorer.SentenceScore, n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("num_sentences must be >= 1, got %d: %w", n, apperrors.ErrInvalidParameter)
	}
	if len(scores) <= n {
		indices := make([]int, len(scores))
		for i, s := range scores {
			indices[i] = s.Index
		}
		sort.Ints(indices)
		return indices, nil
	}

	ranked := make([]scorer.SentenceScore, len(scores))
	copy(ranked, scores)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})

	indices := make([]int, n)
	for i := range indices {
		indices[i] = ranked[i].Index
	}
	sort.Ints(indices)
	return indices, nil
}

// Package evaluation scores a generated summary against a reference summary
// with ROUGE-1, ROUGE-2 and ROUGE-L.
package evaluation

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Score is one ROUGE measure. All fields lie in [0, 1].
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

type Scores struct {
	Rouge1 Score `json:"rouge1"`
	Rouge2 Score `json:"rouge2"`
	RougeL Score `json:"rougeL"`
}

// Evaluate compares generated against reference. Precision is measured
// against the generated text and recall against the reference.
func Evaluate(reference, generated string) Scores {
	ref := Tokenize(reference)
	gen := Tokenize(generated)
	return Scores{
		Rouge1: rougeN(ref, gen, 1),
		Rouge2: rougeN(ref, gen, 2),
		RougeL: rougeL(ref, gen),
	}
}

// Tokenize lower-cases text, keeps runs of ASCII letters and digits and
// stems tokens longer than three characters. Any other rune separates tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for i, f := range fields {
		if len(f) <= 3 {
			continue
		}
		if stemmed, err := snowball.Stem(f, "english", true); err == nil && stemmed != "" {
			fields[i] = stemmed
		}
	}
	return fields
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

func rougeN(ref, gen []string, n int) Score {
	refGrams := ngrams(ref, n)
	genGrams := ngrams(gen, n)

	refTotal, genTotal, overlap := 0, 0, 0
	for _, c := range refGrams {
		refTotal += c
	}
	for g, c := range genGrams {
		genTotal += c
		overlap += min(c, refGrams[g])
	}
	return newScore(overlap, genTotal, refTotal)
}

func rougeL(ref, gen []string) Score {
	return newScore(lcs(ref, gen), len(gen), len(ref))
}

// lcs returns the length of the longest common subsequence using two rows.
func lcs(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func newScore(overlap, genTotal, refTotal int) Score {
	var s Score
	if genTotal > 0 {
		s.Precision = float64(overlap) / float64(genTotal)
	}
	if refTotal > 0 {
		s.Recall = float64(overlap) / float64(refTotal)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

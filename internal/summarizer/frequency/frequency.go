// Package frequency aggregates normalized terms across a whole document into
// a read-only term-frequency table.
package frequency

// Table maps each normalized term to its number of occurrences in the
// document. It is built once by Build and never mutated afterwards.
type Table struct {
	counts map[string]int
	total  int
}

// Build counts every occurrence of every term across all sentences. A term
// seen twice in one sentence and once in another counts 3.
func Build(sentences [][]string) *Table {
	counts := make(map[string]int)
	total := 0
	for _, terms := range sentences {
		for _, term := range terms {
			counts[term]++
			total++
		}
	}
	return &Table{counts: counts, total: total}
}

// Count returns the occurrences of term, or 0 if it never occurred.
func (t *Table) Count(term string) int {
	return t.counts[term]
}

// Len returns the number of distinct terms.
func (t *Table) Len() int {
	return len(t.counts)
}

// Total returns the number of term occurrences in the document.
func (t *Table) Total() int {
	return t.total
}

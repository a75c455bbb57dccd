// Package assembler renders selected sentences as the final summary text.
package assembler

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
)

// Assemble joins the raw sentence texts with a single space, in the order
// given.
func Assemble(sentences []segmenter.Sentence) string {
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

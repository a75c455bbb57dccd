package assembler

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name string
		in   []segmenter.Sentence
		want string
	}{
		{"empty", nil, ""},
		{"single", []segmenter.Sentence{{Index: 3, Text: "Only one."}}, "Only one."},
		{
			"raw text kept verbatim",
			[]segmenter.Sentence{{Index: 0, Text: "Cats are GREAT!"}, {Index: 2, Text: "Cats and dogs are pets."}},
			"Cats are GREAT! Cats and dogs are pets.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assemble(tt.in); got != tt.want {
				t.Errorf("Assemble() = %q, want %q", got, tt.want)
			}
		})
	}
}

package segmenter

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
)

func TestSegmentAssignsDenseIndices(t *testing.T) {
	text := "Cats are great. Dogs are great too. Cats are great."
	got, tokens, err := Segment(text, RuleSplitter{}, FieldsSplitter{})
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	want := []Sentence{
		{Index: 0, Text: "Cats are great."},
		{Index: 1, Text: "Dogs are great too."},
		{Index: 2, Text: "Cats are great."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Segment() = %+v, want %+v", got, want)
	}
	if len(tokens) != len(got) {
		t.Fatalf("got %d token lists for %d sentences", len(tokens), len(got))
	}
	if !reflect.DeepEqual(tokens[1], []string{"Dogs", "are", "great", "too"}) {
		t.Errorf("tokens[1] = %q", tokens[1])
	}
}

func TestSegmentEmptyDocument(t *testing.T) {
	for _, text := range []string{"", "   \n\t ", "..."} {
		_, _, err := Segment(text, splitterFunc(func(string) []string { return []string{" ", ""} }), FieldsSplitter{})
		if !errors.Is(err, apperrors.ErrEmptyDocument) {
			t.Errorf("Segment(%q) error = %v, want ErrEmptyDocument", text, err)
		}
	}
}

func TestRuleSplitter(t *testing.T) {
	got := RuleSplitter{}.Split("Wait... what?! Fine. no terminal")
	want := []string{"Wait...", " what?!", " Fine.", " no terminal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %q, want %q", got, want)
	}
}

func TestPunktSplitterHandlesAbbreviations(t *testing.T) {
	p, err := NewPunktSplitter()
	if err != nil {
		t.Fatalf("NewPunktSplitter() error: %v", err)
	}
	sentences, _, err := Segment("Mr. Smith went to Washington. He arrived at noon.", p, UAX29Splitter{})
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2: %+v", len(sentences), sentences)
	}
	if sentences[1].Text != "He arrived at noon." {
		t.Errorf("second sentence = %q", sentences[1].Text)
	}
}

func TestUAX29SplitterDropsWhitespace(t *testing.T) {
	got := UAX29Splitter{}.Split("Cats, and dogs!")
	want := []string{"Cats", ",", "and", "dogs", "!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %q, want %q", got, want)
	}
}

func TestNewSplittersByName(t *testing.T) {
	if _, err := NewSentenceSplitter("rule"); err != nil {
		t.Errorf("rule: %v", err)
	}
	if _, err := NewSentenceSplitter("bogus"); err == nil {
		t.Error("expected error for unknown sentence splitter")
	}
	if _, err := NewWordSplitter("fields"); err != nil {
		t.Errorf("fields: %v", err)
	}
	if _, err := NewWordSplitter("bogus"); err == nil {
		t.Error("expected error for unknown word splitter")
	}
}

type splitterFunc func(string) []string

func (f splitterFunc) Split(s string) []string { return f(s) }

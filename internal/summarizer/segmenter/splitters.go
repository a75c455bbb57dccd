package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// PunktSplitter detects sentence boundaries with the Punkt model trained for
// English, which handles abbreviations, initials and ellipses.
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the English Punkt model.
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

func (p *PunktSplitter) Split(text string) []string {
	found := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.Text)
	}
	return out
}

var terminalPunct = regexp.MustCompile(`[^.!?。！？]+(?:[.!?。！？]+|$)`)

// RuleSplitter cuts after runs of terminal punctuation (. ! ? and their CJK
// forms). A trailing fragment without punctuation is kept as a sentence.
type RuleSplitter struct{}

func (RuleSplitter) Split(text string) []string {
	return terminalPunct.FindAllString(text, -1)
}

// UAX29Splitter segments words on Unicode Standard Annex #29 boundaries.
// Whitespace segments are dropped; punctuation segments are kept so the
// normalizer can apply its own keep rule.
type UAX29Splitter struct{}

func (UAX29Splitter) Split(sentence string) []string {
	tokens := words.FromString(sentence)
	out := make([]string, 0, len(sentence)/4)
	for tokens.Next() {
		tok := tokens.Value()
		if strings.TrimSpace(tok) == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// FieldsSplitter splits on every rune that is neither a letter nor a digit.
type FieldsSplitter struct{}

func (FieldsSplitter) Split(sentence string) []string {
	return strings.FieldsFunc(sentence, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NewSentenceSplitter resolves a configured sentence splitter by name.
func NewSentenceSplitter(name string) (SentenceSplitter, error) {
	switch name {
	case "", "punkt":
		return NewPunktSplitter()
	case "rule":
		return RuleSplitter{}, nil
	default:
		return nil, fmt.Errorf("unknown sentence splitter %q", name)
	}
}

// NewWordSplitter resolves a configured word splitter by name.
func NewWordSplitter(name string) (WordSplitter, error) {
	switch name {
	case "", "uax29":
		return UAX29Splitter{}, nil
	case "fields":
		return FieldsSplitter{}, nil
	default:
		return nil, fmt.Errorf("unknown word splitter %q", name)
	}
}

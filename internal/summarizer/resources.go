package summarizer

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/normalizer"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
)

// Resources bundles the language resources the pipeline reads from. A
// Resources value is immutable once built and safe to share between
// goroutines and requests.
type Resources struct {
	Sentences  segmenter.SentenceSplitter
	Words      segmenter.WordSplitter
	Normalizer *normalizer.Normalizer
}

// LoadResources builds the splitters, stopword set and stemmer named in cfg.
func LoadResources(cfg config.SummarizerConfig) (*Resources, error) {
	sentences, err := segmenter.NewSentenceSplitter(cfg.SentenceSplitter)
	if err != nil {
		return nil, err
	}
	words, err := segmenter.NewWordSplitter(cfg.WordSplitter)
	if err != nil {
		return nil, err
	}

	stopwords := normalizer.EnglishStopwords()
	if cfg.StopwordsFile != "" {
		stopwords, err = normalizer.LoadStopwords(cfg.StopwordsFile)
		if err != nil {
			return nil, err
		}
	} else if cfg.Language != "" && cfg.Language != "english" {
		return nil, fmt.Errorf("no built-in stopword list for %q; set stopwordsFile", cfg.Language)
	}

	stemmer, err := normalizer.NewStemmer(cfg.Stemmer, cfg.Language)
	if err != nil {
		return nil, err
	}

	return &Resources{
		Sentences:  sentences,
		Words:      words,
		Normalizer: normalizer.New(stopwords, stemmer),
	}, nil
}

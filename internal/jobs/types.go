// Package jobs runs summarization asynchronously over Kafka. The API submits
// a Request to the requests topic; a worker summarizes it and publishes a
// Result to the results topic.
package jobs

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/summarizer/segmenter"
)

const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request is the payload on the requests topic.
type Request struct {
	JobID        string    `json:"job_id"`
	Text         string    `json:"text"`
	NumSentences int       `json:"num_sentences"`
	RequestID    string    `json:"request_id,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Result is the payload on the results topic. Exactly one of Summary and
// ErrorKind is meaningful, depending on Status.
type Result struct {
	JobID         string               `json:"job_id"`
	Status        string               `json:"status"`
	Summary       string               `json:"summary,omitempty"`
	Sentences     []segmenter.Sentence `json:"sentences,omitempty"`
	SentenceCount int                  `json:"sentence_count,omitempty"`
	ErrorKind     string               `json:"error_kind,omitempty"`
	Error         string               `json:"error,omitempty"`
	CompletedAt   time.Time            `json:"completed_at"`
}

// Accepted is returned to the caller that submitted a job.
type Accepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

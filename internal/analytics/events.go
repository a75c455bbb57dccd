package analytics

import "time"

// Source identifies the entry point a summary was requested through.
type Source string

const (
	SourceText   Source = "text"
	SourceUpload Source = "upload"
	SourceJob    Source = "job"
)

// SummaryEvent describes one summarization attempt. It never carries the
// document or summary text.
type SummaryEvent struct {
	Source             Source    `json:"source"`
	Format             string    `json:"format,omitempty"`
	Success            bool      `json:"success"`
	ErrorKind          string    `json:"error_kind,omitempty"`
	RequestedSentences int       `json:"requested_sentences"`
	DocumentSentences  int       `json:"document_sentences"`
	SelectedSentences  int       `json:"selected_sentences"`
	InputBytes         int       `json:"input_bytes"`
	LatencyMs          int64     `json:"latency_ms"`
	Timestamp          time.Time `json:"timestamp"`
	RequestID          string    `json:"request_id,omitempty"`
}

// Tracker accepts summary events. Implementations must not block.
type Tracker interface {
	Track(event SummaryEvent)
}

type multiTracker []Tracker

func (m multiTracker) Track(event SummaryEvent) {
	for _, t := range m {
		t.Track(event)
	}
}

// Tee fans an event out to every non-nil tracker.
func Tee(trackers ...Tracker) Tracker {
	out := make(multiTracker, 0, len(trackers))
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

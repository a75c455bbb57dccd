package analytics

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
)

const latencyWindow = 10000

// AggregatedStats is the snapshot served by the analytics endpoint and
// persisted by the snapshot store.
type AggregatedStats struct {
	TotalSummaries       int64            `json:"total_summaries"`
	Succeeded            int64            `json:"succeeded"`
	Failed               int64            `json:"failed"`
	ErrorsByKind         map[string]int64 `json:"errors_by_kind"`
	BySource             map[string]int64 `json:"by_source"`
	ByFormat             map[string]int64 `json:"by_format"`
	AvgLatencyMs         float64          `json:"avg_latency_ms"`
	P50LatencyMs         int64            `json:"p50_latency_ms"`
	P95LatencyMs         int64            `json:"p95_latency_ms"`
	P99LatencyMs         int64            `json:"p99_latency_ms"`
	AvgDocumentSentences float64          `json:"avg_document_sentences"`
	AvgCompressionRatio  float64          `json:"avg_compression_ratio"`
	SummariesPerMinute   float64          `json:"summaries_per_minute"`
	Since                time.Time        `json:"since"`
}

// Aggregator folds summary events into running statistics. Latency
// percentiles cover the most recent events only.
type Aggregator struct {
	mu           sync.RWMutex
	total        int64
	succeeded    int64
	errorsByKind map[string]int64
	bySource     map[string]int64
	byFormat     map[string]int64
	latencies    []int64
	next         int
	docSentences int64
	ratioSum     float64
	ratioCount   int64
	startTime    time.Time

	now    func() time.Time
	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		errorsByKind: make(map[string]int64),
		bySource:     make(map[string]int64),
		byFormat:     make(map[string]int64),
		latencies:    make([]int64, 0, 1024),
		startTime:    time.Now(),
		now:          time.Now,
		logger:       slog.Default().With("component", "analytics-aggregator"),
	}
}

// Track records an event; it satisfies Tracker so the API can aggregate its
// own traffic in-process.
func (a *Aggregator) Track(event SummaryEvent) {
	a.Record(event)
}

func (a *Aggregator) Record(event SummaryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.bySource[string(event.Source)]++
	if event.Format != "" {
		a.byFormat[event.Format]++
	}

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}

	if !event.Success {
		kind := event.ErrorKind
		if kind == "" {
			kind = "internal"
		}
		a.errorsByKind[kind]++
		return
	}
	a.succeeded++
	a.docSentences += int64(event.DocumentSentences)
	if event.DocumentSentences > 0 {
		a.ratioSum += float64(event.SelectedSentences) / float64(event.DocumentSentences)
		a.ratioCount++
	}
}

// HandleEvent returns a consumer handler feeding the aggregator. Undecodable
// messages are logged and committed.
func (a *Aggregator) HandleEvent() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := kafka.DecodeJSON[SummaryEvent](msg.Value)
		if err != nil {
			a.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		a.Record(event)
		return nil
	}
}

// Restore seeds the counters from a persisted snapshot so totals survive a
// restart. Latency samples are not persisted and start empty.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total = s.TotalSummaries
	a.succeeded = s.Succeeded
	a.errorsByKind = cloneCounts(s.ErrorsByKind)
	a.bySource = cloneCounts(s.BySource)
	a.byFormat = cloneCounts(s.ByFormat)
	a.docSentences = int64(s.AvgDocumentSentences * float64(s.Succeeded))
	if s.AvgCompressionRatio > 0 {
		a.ratioCount = s.Succeeded
		a.ratioSum = s.AvgCompressionRatio * float64(s.Succeeded)
	}
	if !s.Since.IsZero() {
		a.startTime = s.Since
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSummaries: a.total,
		Succeeded:      a.succeeded,
		Failed:         a.total - a.succeeded,
		ErrorsByKind:   cloneCounts(a.errorsByKind),
		BySource:       cloneCounts(a.bySource),
		ByFormat:       cloneCounts(a.byFormat),
		Since:          a.startTime,
	}

	if len(a.latencies) > 0 {
		sorted := slices.Clone(a.latencies)
		slices.Sort(sorted)

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if a.succeeded > 0 {
		stats.AvgDocumentSentences = float64(a.docSentences) / float64(a.succeeded)
	}
	if a.ratioCount > 0 {
		stats.AvgCompressionRatio = a.ratioSum / float64(a.ratioCount)
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.SummariesPerMinute = float64(a.total) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func cloneCounts(m map[string]int64) map[string]int64 {
	if m == nil {
		return make(map[string]int64)
	}
	return maps.Clone(m)
}

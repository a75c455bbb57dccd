package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers summary events and publishes them in batches, either
// when batchSize events are pending or every flushInterval. On publish
// failure the batch is re-queued; the buffer is capped at three batches and
// the oldest events beyond that are dropped.
type Collector struct {
	publisher     Publisher
	batchSize     int
	flushInterval time.Duration
	dropped       prometheus.Counter

	mu     sync.Mutex
	buffer []kafka.Event

	kick   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

// NewCollector builds a collector. dropped may be nil.
func NewCollector(publisher Publisher, batchSize int, flushInterval time.Duration, dropped prometheus.Counter) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		dropped:       dropped,
		buffer:        make([]kafka.Event, 0, batchSize),
		kick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		logger:        slog.Default().With("component", "analytics-collector"),
	}
}

// Start launches the flush loop. The loop exits after a final flush once
// ctx is cancelled; Close waits for that.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Flush(ctx)
			case <-c.kick:
				c.Flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.Flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track queues an event. A full batch wakes the flush loop.
func (c *Collector) Track(event SummaryEvent) {
	c.mu.Lock()
	c.buffer = append(c.buffer, kafka.Event{
		Key:     string(event.Source),
		Value:   event,
		Headers: requestHeaders(event.RequestID),
	})
	full := len(c.buffer) >= c.batchSize
	c.mu.Unlock()

	if full {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}

// Close waits for the flush loop to finish.
func (c *Collector) Close() {
	<-c.done
}

// Pending returns the number of buffered events.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Flush publishes everything buffered so far.
func (c *Collector) Flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)

		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if limit := c.batchSize * 3; len(c.buffer) > limit {
			n := len(c.buffer) - limit
			c.buffer = c.buffer[n:]
			if c.dropped != nil {
				c.dropped.Add(float64(n))
			}
			c.logger.Warn("analytics buffer overflow, events dropped", "dropped", n)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("batch flushed", "events", len(batch))
}

func requestHeaders(requestID string) map[string]string {
	if requestID == "" {
		return nil
	}
	return map[string]string{"X-Request-ID": requestID}
}

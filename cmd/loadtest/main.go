// Command loadtest drives concurrent summarize requests against a running
// summarizer service and reports throughput, latency percentiles and the
// status-code mix.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type options struct {
	baseURL      string
	apiKey       string
	concurrency  int
	duration     time.Duration
	numSentences int
	documents    []string
}

// results is shared by all workers.
type results struct {
	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int
	transport int
}

func newResults() *results {
	return &results{
		latencies: make([]time.Duration, 0, 10000),
		statuses:  make(map[int]int),
	}
}

func (r *results) record(d time.Duration, status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.transport++
		return
	}
	r.statuses[status]++
	r.latencies = append(r.latencies, d)
}

func (r *results) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.transport
	for _, c := range r.statuses {
		n += c
	}
	return n
}

var sampleDocuments = []string{
	"Cats are great. Cats and dogs are pets. Dogs like long walks in the park. Many households keep both animals.",
	"The central bank raised interest rates again. Markets fell sharply after the announcement. Analysts expect one more increase this year. Mortgage holders will feel the change first.",
	"Solar capacity grew faster than any other source last year. Falling panel prices drove most of the growth. Grid operators are adding storage to smooth the supply. Wind capacity also rose in coastal regions.",
	"The team shipped the new release on Friday. It fixes a memory leak in the cache layer. Users reported faster page loads within hours. A follow-up patch is planned for next week.",
	"Short text.",
}

func main() {
	opts := options{documents: sampleDocuments}
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "base URL of the summarizer service")
	flag.StringVar(&opts.apiKey, "api-key", os.Getenv("SUM_API_KEY"), "API key sent as a bearer token")
	flag.IntVar(&opts.concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&opts.duration, "duration", 30*time.Second, "test duration")
	flag.IntVar(&opts.numSentences, "n", 2, "num_sentences sent with every request")
	flag.Parse()

	fmt.Println("=== Summarizer Load Test ===")
	fmt.Printf("Target:      %s\n", opts.baseURL)
	fmt.Printf("Concurrency: %d\n", opts.concurrency)
	fmt.Printf("Duration:    %s\n", opts.duration)
	fmt.Printf("Documents:   %d unique\n\n", len(opts.documents))

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	res := run(ctx, newClient(opts.concurrency), opts)
	report(os.Stdout, res, opts.duration)
	if res.total() == 0 {
		fmt.Println("\nWARNING: no requests completed. Is the service running?")
		os.Exit(1)
	}
}

func newClient(concurrency int) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// run sends requests from opts.concurrency workers until ctx is done.
func run(ctx context.Context, client *http.Client, opts options) *results {
	res := newResults()
	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				body, err := json.Marshal(map[string]any{
					"text":          opts.documents[i%len(opts.documents)],
					"num_sentences": opts.numSentences,
				})
				if err != nil {
					return err
				}
				start := time.Now()
				status, err := post(ctx, client, opts, body)
				if ctx.Err() != nil {
					return nil
				}
				res.record(time.Since(start), status, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func post(ctx context.Context, client *http.Client, opts options, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.baseURL+"/api/v1/summarize", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+opts.apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func report(w io.Writer, res *results, duration time.Duration) {
	res.mu.Lock()
	latencies := slices.Clone(res.latencies)
	statuses := make(map[int]int, len(res.statuses))
	for code, c := range res.statuses {
		statuses[code] = c
	}
	transport := res.transport
	res.mu.Unlock()

	total := transport
	ok := 0
	for code, c := range statuses {
		total += c
		if code >= 200 && code < 300 {
			ok += c
		}
	}

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", ok)
	fmt.Fprintf(w, "Errors:          %d\n", total-ok)
	if total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(total-ok)/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", sum/time.Duration(len(latencies)))
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%-5.0f %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, statuses[code])
	}
	if transport > 0 {
		fmt.Fprintf(w, "  transport errors: %d\n", transport)
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

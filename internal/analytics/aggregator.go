package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/kafka"
)

type Stats struct {
	TotalQueries     int64            `json:"total_queries"`
	UnmatchedQueries int64            `json:"unmatched_queries"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     float64          `json:"p50_latency_ms"`
	P95LatencyMs     float64          `json:"p95_latency_ms"`
	P99LatencyMs     float64          `json:"p99_latency_ms"`
	TopQueries       []Count          `json:"top_queries"`
	TopUnmatched     []Count          `json:"top_unmatched"`
	TopFiles         []Count          `json:"top_files"`
	ByOrigin         map[string]int64 `json:"by_origin"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
}

type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Aggregator keeps running totals over recorded events. Latencies are kept
// in a bounded ring so memory stays flat on long runs.
type Aggregator struct {
	mu        sync.Mutex
	total     int64
	unmatched int64
	latencies []float64
	next      int
	queries   map[string]int64
	misses    map[string]int64
	files     map[string]int64
	origins   map[string]int64
	startTime time.Time
}

const latencyWindow = 10000

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies: make([]float64, 0, 256),
		queries:   make(map[string]int64),
		misses:    make(map[string]int64),
		files:     make(map[string]int64),
		origins:   make(map[string]int64),
		startTime: time.Now(),
	}
}

func (a *Aggregator) Record(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.queries[event.Query]++
	if !event.Matched {
		a.unmatched++
		a.misses[event.Query]++
	}
	for _, f := range event.Files {
		a.files[f]++
	}
	if event.Origin != "" {
		a.origins[event.Origin]++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
}

// HandleMessage adapts Record to a Kafka consumer. An undecodable message is
// returned as an error for the consumer to count and skip.
func (a *Aggregator) HandleMessage() kafka.MessageHandler {
	return func(_ context.Context, _, value []byte) error {
		event, err := kafka.DecodeJSON[QueryEvent](value)
		if err != nil {
			return err
		}
		a.Record(event)
		return nil
	}
}

// DefaultTop is how many entries each ranked list of Stats holds.
const DefaultTop = 10

func (a *Aggregator) Stats() Stats {
	return a.StatsTop(DefaultTop)
}

// StatsTop is Stats with the ranked lists cut to n entries.
func (a *Aggregator) StatsTop(n int) Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Stats{
		TotalQueries:     a.total,
		UnmatchedQueries: a.unmatched,
		TopQueries:       topCounts(a.queries, n),
		TopUnmatched:     topCounts(a.misses, n),
		TopFiles:         topCounts(a.files, n),
		ByOrigin:         make(map[string]int64, len(a.origins)),
	}
	for k, v := range a.origins {
		stats.ByOrigin[k] = v
	}
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)
		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(a.total) / elapsed
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topCounts returns the n largest counts, ties broken by key.
func topCounts(counts map[string]int64, n int) []Count {
	result := make([]Count, 0, len(counts))
	for k, c := range counts {
		result = append(result, Count{Key: k, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

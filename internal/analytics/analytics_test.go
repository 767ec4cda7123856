package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/ranker"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/resilience"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (f *fakePublisher) published() []QueryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []QueryEvent
	for _, b := range f.batches {
		for _, e := range b {
			out = append(out, e.Value.(QueryEvent))
		}
	}
	return out
}

func TestCollector_PublishesInBatches(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, CollectorConfig{BatchSize: 2, FlushInterval: time.Hour})
	c.Start()

	for _, q := range []string{"one", "two", "three"} {
		c.Record(QueryEvent{Query: q})
	}
	c.Close()

	got := pub.published()
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Query)
	assert.Equal(t, "three", got[2].Query)
	assert.Len(t, pub.batches, 2, "full batch plus final flush")
}

func TestCollector_FlushesOnInterval(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, CollectorConfig{BatchSize: 100, FlushInterval: 10 * time.Millisecond})
	c.Start()
	defer c.Close()

	c.Record(QueryEvent{Query: "tick"})
	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollector_CountsDrops(t *testing.T) {
	var dropped atomic.Int64
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, CollectorConfig{
		BatchSize:     1,
		FlushInterval: time.Hour,
		Dropped:       func(n int) { dropped.Add(int64(n)) },
	})
	c.Start()
	c.Record(QueryEvent{Query: "lost"})
	c.Close()
	assert.Equal(t, int64(1), dropped.Load())
}

func TestCollector_BreakerOpensOnRepeatedFailures(t *testing.T) {
	var states []resilience.State
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, CollectorConfig{
		BatchSize:     1,
		FlushInterval: time.Hour,
		BreakerState:  func(s resilience.State) { states = append(states, s) },
	})
	c.Start()
	for i := 0; i < 4; i++ {
		c.Record(QueryEvent{Query: "lost"})
	}
	c.Close()
	assert.Equal(t, []resilience.State{resilience.StateOpen}, states)
}

func TestCollector_FullBufferDropsWithoutBlocking(t *testing.T) {
	var dropped atomic.Int64
	c := NewCollector(&fakePublisher{}, CollectorConfig{
		BufferSize: 1,
		Dropped:    func(n int) { dropped.Add(int64(n)) },
	})
	// not started: the second event has nowhere to go
	c.Record(QueryEvent{Query: "kept"})
	c.Record(QueryEvent{Query: "dropped"})
	assert.Equal(t, int64(1), dropped.Load())
}

func TestAggregator(t *testing.T) {
	a := NewAggregator()
	a.Record(QueryEvent{Query: "who created python", Files: []string{"python.txt"}, Matched: true, LatencyMs: 2, Origin: OriginCLI})
	a.Record(QueryEvent{Query: "who created python", Files: []string{"python.txt"}, Matched: true, LatencyMs: 4, Origin: OriginHTTP})
	a.Record(QueryEvent{Query: "zzz", Files: []string{"go.txt"}, Matched: false, LatencyMs: 6, Origin: OriginHTTP})

	s := a.Stats()
	assert.Equal(t, int64(3), s.TotalQueries)
	assert.Equal(t, int64(1), s.UnmatchedQueries)
	assert.InDelta(t, 4.0, s.AvgLatencyMs, 1e-9)
	assert.Equal(t, 4.0, s.P50LatencyMs)
	assert.Equal(t, 6.0, s.P99LatencyMs)
	assert.Equal(t, []Count{{"who created python", 2}, {"zzz", 1}}, s.TopQueries)
	assert.Equal(t, []Count{{"zzz", 1}}, s.TopUnmatched)
	assert.Equal(t, []Count{{"python.txt", 2}, {"go.txt", 1}}, s.TopFiles)
	assert.Equal(t, map[string]int64{OriginCLI: 1, OriginHTTP: 2}, s.ByOrigin)
}

func TestAggregator_LatencyWindowBounded(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < latencyWindow+50; i++ {
		a.Record(QueryEvent{Query: "q", LatencyMs: float64(i)})
	}
	assert.Len(t, a.latencies, latencyWindow)
	assert.Equal(t, int64(latencyWindow+50), a.Stats().TotalQueries)
}

func TestAggregator_HandleMessage(t *testing.T) {
	a := NewAggregator()
	handle := a.HandleMessage()

	value, err := json.Marshal(QueryEvent{Query: "from kafka", Matched: true})
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), []byte("k"), value))
	assert.Error(t, handle(context.Background(), []byte("k"), []byte("{broken")))

	assert.Equal(t, int64(1), a.Stats().TotalQueries)
}

func TestAggregator_StatsTop(t *testing.T) {
	a := NewAggregator()
	for _, q := range []string{"a", "b", "b", "c", "c", "c"} {
		a.Record(QueryEvent{Query: q, Matched: true})
	}
	s := a.StatsTop(2)
	assert.Equal(t, []Count{{"c", 3}, {"b", 2}}, s.TopQueries)
	assert.Empty(t, s.TopUnmatched)
	assert.Len(t, a.Stats().TopQueries, 3)
}

func TestFromAnswer(t *testing.T) {
	ans := &engine.Answer{
		Query:     "who created python",
		Terms:     []string{"created", "python"},
		Files:     []ranker.ScoredDoc{{DocID: "python.txt", Score: 1.2}, {DocID: "go.txt", Score: 0}},
		Sentences: []engine.Sentence{{Text: "It was created by Guido van Rossum."}},
		Took:      1500 * time.Microsecond,
	}
	e := FromAnswer(ans, OriginHTTP, "req-1")
	assert.Equal(t, []string{"python.txt", "go.txt"}, e.Files)
	assert.True(t, e.Matched)
	assert.Equal(t, 1, e.Sentences)
	assert.Equal(t, 1.5, e.LatencyMs)
	assert.Equal(t, "req-1", e.RequestID)

	ans.Files = []ranker.ScoredDoc{{DocID: "go.txt", Score: 0}}
	assert.False(t, FromAnswer(ans, OriginCLI, "").Matched)
}

func TestMulti(t *testing.T) {
	a, b := NewAggregator(), NewAggregator()
	Multi{a, b}.Record(QueryEvent{Query: "q"})
	assert.Equal(t, int64(1), a.Stats().TotalQueries)
	assert.Equal(t, int64(1), b.Stats().TotalQueries)
}

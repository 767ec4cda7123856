// Package analytics records answered queries. The Collector publishes each
// QueryEvent to Kafka without blocking the query path; the Aggregator folds
// events, from Kafka or in-process, into usage statistics.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
)

// Origins of a query.
const (
	OriginCLI  = "cli"
	OriginHTTP = "http"
	OriginMCP  = "mcp"
)

type QueryEvent struct {
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	Files     []string  `json:"files"`
	Sentences int       `json:"sentences"`
	Matched   bool      `json:"matched"`
	LatencyMs float64   `json:"latency_ms"`
	Origin    string    `json:"origin"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder receives an event for every answered query.
type Recorder interface {
	Record(event QueryEvent)
}

// Multi records each event with every recorder in order.
type Multi []Recorder

func (m Multi) Record(event QueryEvent) {
	for _, r := range m {
		r.Record(event)
	}
}

// FromAnswer builds the event for ans. A query is matched when its best
// document scored above zero.
func FromAnswer(ans *engine.Answer, origin, requestID string) QueryEvent {
	files := make([]string, len(ans.Files))
	for i, f := range ans.Files {
		files[i] = f.DocID
	}
	return QueryEvent{
		Query:     ans.Query,
		Terms:     ans.Terms,
		Files:     files,
		Sentences: len(ans.Sentences),
		Matched:   len(ans.Files) > 0 && ans.Files[0].Score > 0,
		LatencyMs: float64(ans.Took.Microseconds()) / 1000,
		Origin:    origin,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

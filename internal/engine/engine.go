// Package engine runs the question-answering pipeline: tokenize the query,
// rank documents by TF-IDF, extract the sentences of the chosen documents,
// recompute IDF over those sentences and rank them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/idf"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/tracing"
)

// Pipeline stage names, used as span names and metric labels.
const (
	StageTokenize      = "tokenize"
	StageRankFiles     = "rank_files"
	StageExtract       = "extract"
	StageSentenceIDF   = "sentence_idf"
	StageRankSentences = "rank_sentences"
)

// Limits bounds the size of an answer.
type Limits struct {
	Files     int `json:"files"`
	Sentences int `json:"sentences"`
}

type Sentence struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Density float64 `json:"density"`
	Source  string  `json:"source"`
}

// Answer is the result of one query. Sentences is the user-facing answer;
// Terms and Files explain how it was reached.
type Answer struct {
	Query     string             `json:"query"`
	Terms     []string           `json:"terms"`
	Files     []ranker.ScoredDoc `json:"files"`
	Sentences []Sentence         `json:"sentences"`
	Took      time.Duration      `json:"took_ns"`
}

// Stats describes the corpus currently being served.
type Stats struct {
	Documents  int       `json:"documents"`
	Tokens     int       `json:"tokens"`
	Vocabulary int       `json:"vocabulary"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// snapshot is everything a query reads from the corpus. It is never mutated
// after publication.
type snapshot struct {
	corpus *corpus.Corpus
	idfs   *idf.Table
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine is safe for concurrent use. Queries read an immutable snapshot;
// Replace publishes a new one without blocking them.
type Engine struct {
	tok     *tokenizer.Tokenizer
	ext     *extract.Extractor
	snap    atomic.Pointer[snapshot]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(c *corpus.Corpus, tok *tokenizer.Tokenizer, ext *extract.Extractor, opts ...Option) *Engine {
	e := &Engine{
		tok:    tok,
		ext:    ext,
		logger: slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Replace(c)
	return e
}

// Replace computes the document IDF table for c and makes c the corpus for
// every query that starts afterwards.
func (e *Engine) Replace(c *corpus.Corpus) {
	s := &snapshot{corpus: c, idfs: idf.Compute(c.Words())}
	e.snap.Store(s)
	if e.metrics != nil {
		e.metrics.CorpusDocuments.Set(float64(c.Len()))
	}
	e.logger.Debug("corpus published",
		"documents", c.Len(),
		"tokens", c.TokenCount(),
		"vocabulary", s.idfs.Len(),
	)
}

func (e *Engine) Stats() Stats {
	s := e.snap.Load()
	return Stats{
		Documents:  s.corpus.Len(),
		Tokens:     s.corpus.TokenCount(),
		Vocabulary: s.idfs.Len(),
		LoadedAt:   s.corpus.LoadedAt(),
	}
}

// Document returns the text of the document id in the current corpus.
func (e *Engine) Document(id string) (string, bool) {
	return e.snap.Load().corpus.Text(id)
}

// Answer runs the pipeline for rawQuery. Limits must be positive.
func (e *Engine) Answer(ctx context.Context, rawQuery string, lim Limits) (*Answer, error) {
	if lim.Files < 1 || lim.Sentences < 1 {
		return nil, apperrors.Invalidf("files and sentences must be positive, got %d and %d", lim.Files, lim.Sentences)
	}
	start := time.Now()
	ans, err := e.answer(ctx, rawQuery, lim)
	took := time.Since(start)

	result := metrics.ResultAnswered
	switch {
	case err != nil:
		result = metrics.ResultError
	case len(ans.Sentences) == 0:
		result = metrics.ResultEmpty
	}
	if e.metrics != nil {
		e.metrics.QueriesTotal.WithLabelValues(result).Inc()
		e.metrics.QueryDuration.Observe(took.Seconds())
	}
	if err != nil {
		return nil, err
	}
	ans.Took = took
	return ans, nil
}

func (e *Engine) answer(ctx context.Context, rawQuery string, lim Limits) (*Answer, error) {
	snap := e.snap.Load()
	requestID := logger.RequestID(ctx)
	log := e.logger
	if requestID != "" {
		log = log.With("request_id", requestID)
	}
	ctx, root := tracing.Root(ctx, "answer", requestID)
	defer func() {
		root.End()
		root.Log(ctx, log)
	}()

	var query ranker.Query
	if err := e.stage(ctx, StageTokenize, func(span *tracing.Span) {
		query = ranker.NewQuery(e.tok.Tokenize(rawQuery))
		span.Set("terms", query.Len())
	}); err != nil {
		return nil, err
	}

	var files []ranker.ScoredDoc
	if err := e.stage(ctx, StageRankFiles, func(span *tracing.Span) {
		files = ranker.TopFiles(query, snap.corpus.Words(), snap.idfs, lim.Files)
		span.Set("candidates", snap.corpus.Len())
	}); err != nil {
		return nil, err
	}

	var (
		sentences *corpus.Collection
		origin    map[string]string
	)
	if err := e.stage(ctx, StageExtract, func(span *tracing.Span) {
		docs := make([]corpus.Document, 0, len(files))
		for _, f := range files {
			text, _ := snap.corpus.Text(f.DocID)
			docs = append(docs, corpus.Document{ID: f.DocID, Text: text})
		}
		sentences, origin = e.ext.ExtractDocuments(docs...)
		span.Set("sentences", sentences.Len())
	}); err != nil {
		return nil, err
	}

	var sentenceIDF *idf.Table
	if err := e.stage(ctx, StageSentenceIDF, func(*tracing.Span) {
		sentenceIDF = idf.Compute(sentences)
	}); err != nil {
		return nil, err
	}

	var ranked []ranker.ScoredSentence
	if err := e.stage(ctx, StageRankSentences, func(*tracing.Span) {
		ranked = ranker.TopSentences(query, sentences, sentenceIDF, lim.Sentences)
	}); err != nil {
		return nil, err
	}

	out := make([]Sentence, len(ranked))
	for i, s := range ranked {
		out[i] = Sentence{Text: s.Sentence, Score: s.Score, Density: s.Density, Source: origin[s.Sentence]}
	}
	log.Debug("query answered",
		"terms", query.Terms(),
		"files", len(files),
		"sentences", len(out),
	)
	return &Answer{
		Query:     rawQuery,
		Terms:     query.Terms(),
		Files:     files,
		Sentences: out,
	}, nil
}

// stage runs fn under a child span unless ctx is already done.
func (e *Engine) stage(ctx context.Context, name string, fn func(*tracing.Span)) error {
	if err := ctx.Err(); err != nil {
		if apperrors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("answer stopped before %s: %w", name, apperrors.ErrTimeout)
		}
		return fmt.Errorf("answer stopped before %s: %w", name, err)
	}
	_, span := tracing.Start(ctx, name)
	fn(span)
	d := span.End()
	if e.metrics != nil {
		e.metrics.StageDuration.WithLabelValues(name).Observe(d.Seconds())
	}
	return nil
}

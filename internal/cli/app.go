package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/stopwords"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/resilience"
)

// app holds the components every query-answering command shares.
type app struct {
	cfg       *config.Config
	tok       *tokenizer.Tokenizer
	src       loader.Source
	engine    *engine.Engine
	metrics   *metrics.Metrics
	collector *analytics.Collector
	closers   []func() error
	logger    *slog.Logger
}

// newApp loads the corpus named by cfg and builds the engine over it. The
// analytics collector is started when analytics is enabled.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.New(nil),
		logger:  slog.Default().With("component", "app"),
	}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	stop, err := loadStopwords(a.cfg.Retrieval.StopwordsFile)
	if err != nil {
		return err
	}
	a.tok = tokenizer.New(stop)

	a.src, err = loader.Open(ctx, a.cfg.Corpus)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.src.Close)

	c, err := loader.Build(ctx, a.src, a.tok)
	if err != nil {
		return err
	}
	punkt, err := extract.NewPunkt()
	if err != nil {
		return err
	}
	a.engine = engine.New(c, a.tok, extract.New(a.tok, punkt),
		engine.WithMetrics(a.metrics),
		engine.WithLogger(slog.Default().With("component", "engine")),
	)
	a.logger.Info("corpus loaded",
		"source", a.src.Describe(),
		"documents", c.Len(),
		"tokens", c.TokenCount(),
	)

	if a.cfg.Analytics.Enabled {
		producer := kafka.NewProducer(a.cfg.Analytics)
		a.closers = append(a.closers, producer.Close)
		a.collector = analytics.NewCollector(producer, analytics.CollectorConfig{
			BufferSize:    a.cfg.Analytics.BufferSize,
			BatchSize:     a.cfg.Analytics.BatchSize,
			FlushInterval: a.cfg.Analytics.FlushInterval.Std(),
			Dropped:       func(n int) { a.metrics.AnalyticsDropped.Add(float64(n)) },
			BreakerState:  func(s resilience.State) { a.metrics.AnalyticsBreakerState.Set(float64(s)) },
		})
		a.collector.Start()
		a.closers = append(a.closers, func() error {
			a.collector.Close()
			return nil
		})
	}
	return nil
}

// recorder returns the recorders queries should be reported to, or nil if
// there are none.
func (a *app) recorder(extra ...analytics.Recorder) analytics.Recorder {
	var recs analytics.Multi
	recs = append(recs, extra...)
	if a.collector != nil {
		recs = append(recs, a.collector)
	}
	if len(recs) == 0 {
		return nil
	}
	return recs
}

func (a *app) limits() engine.Limits {
	return engine.Limits{
		Files:     a.cfg.Retrieval.FileMatches,
		Sentences: a.cfg.Retrieval.SentenceMatches,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func loadStopwords(path string) (stopwords.Set, error) {
	if path == "" {
		return stopwords.English(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return stopwords.Set{}, fmt.Errorf("opening stopwords file: %w", err)
	}
	defer f.Close()
	return stopwords.Load(f)
}

// Package loader reads corpus documents from the configured source: a local
// directory, a SQL table (PostgreSQL or SQLite) or Redis string keys.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/resilience"
)

// Source produces the documents of a corpus in a deterministic order.
type Source interface {
	Load(ctx context.Context) ([]corpus.Document, error)
	// Check reports whether the source is reachable.
	Check(ctx context.Context) error
	// Describe names the source for logs, e.g. "dir:/srv/corpus".
	Describe() string
	Close() error
}

// Open connects to the source selected by cfg. Remote sources are retried
// cfg.ConnectAttempts times.
func Open(ctx context.Context, cfg config.CorpusConfig) (Source, error) {
	retry := resilience.RetryConfig{MaxAttempts: cfg.ConnectAttempts}
	switch cfg.Source {
	case config.SourceDir:
		if cfg.Dir == "" {
			return nil, apperrors.Invalidf("corpus directory not set")
		}
		return &DirSource{Dir: cfg.Dir, Concurrency: cfg.LoadConcurrency}, nil

	case config.SourcePostgres, config.SourceSQLite:
		var client *database.Client
		err := resilience.Retry(ctx, "connect "+cfg.Source, retry, func(ctx context.Context) error {
			var err error
			if cfg.Source == config.SourcePostgres {
				client, err = database.OpenPostgres(ctx, cfg.Postgres)
			} else {
				client, err = database.OpenSQLite(ctx, cfg.SQLite)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
		}
		return &SQLSource{Client: client, Query: cfg.Query}, nil

	case config.SourceRedis:
		var client *redis.Client
		err := resilience.Retry(ctx, "connect redis", retry, func(ctx context.Context) error {
			var err error
			client, err = redis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
		}
		return &RedisSource{Client: client, Prefix: cfg.Redis.KeyPrefix}, nil

	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedSource, cfg.Source)
	}
}

// Build loads every document from src and tokenizes them into a corpus. A
// source with no documents is an error.
func Build(ctx context.Context, src Source, tok *tokenizer.Tokenizer) (*corpus.Corpus, error) {
	start := time.Now()
	docs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Describe(), err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("loading %s: %w", src.Describe(), apperrors.ErrEmptyCorpus)
	}
	c, err := corpus.Build(docs, tok)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Describe(), err)
	}
	slog.Default().With("component", "loader").Info("corpus loaded",
		"source", src.Describe(),
		"documents", c.Len(),
		"tokens", c.TokenCount(),
		"duration", time.Since(start),
	)
	return c, nil
}

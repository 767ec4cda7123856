package loader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/metrics"
)

// Target receives each rebuilt corpus.
type Target interface {
	Replace(c *corpus.Corpus)
}

// Reloader rebuilds the corpus from its source and hands it to the target.
// At most one reload runs at a time; a failed reload leaves the current
// corpus in place.
type Reloader struct {
	src     Source
	tok     *tokenizer.Tokenizer
	target  Target
	metrics *metrics.Metrics
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewReloader creates a Reloader. m may be nil.
func NewReloader(src Source, tok *tokenizer.Tokenizer, target Target, m *metrics.Metrics) *Reloader {
	return &Reloader{
		src:     src,
		tok:     tok,
		target:  target,
		metrics: m,
		logger:  slog.Default().With("component", "reloader", "source", src.Describe()),
	}
}

// Reload returns ErrReloadInProgress if another reload is running.
func (r *Reloader) Reload(ctx context.Context) error {
	if !r.mu.TryLock() {
		return apperrors.ErrReloadInProgress
	}
	defer r.mu.Unlock()

	c, err := Build(ctx, r.src, r.tok)
	if err != nil {
		r.count("error")
		r.logger.Error("corpus reload failed, keeping current corpus", "error", err)
		return err
	}
	r.target.Replace(c)
	r.count("success")
	r.logger.Info("corpus reloaded", "documents", c.Len())
	return nil
}

func (r *Reloader) count(status string) {
	if r.metrics != nil {
		r.metrics.CorpusReloadsTotal.WithLabelValues(status).Inc()
	}
}

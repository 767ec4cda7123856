package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

// DirSource treats every regular, non-hidden file directly inside Dir as one
// document named by its file name. Documents come back in lexical name
// order however many files are read in parallel.
type DirSource struct {
	Dir         string
	Concurrency int
}

func (s *DirSource) Load(ctx context.Context) ([]corpus.Document, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}

	docs := make([]corpus.Document, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(s.Dir, name))
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			if !utf8.Valid(data) {
				return fmt.Errorf("%w: %s is not valid UTF-8", apperrors.ErrInvalidInput, name)
			}
			docs[i] = corpus.Document{ID: name, Text: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *DirSource) Check(context.Context) error {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.Dir)
	}
	return nil
}

func (s *DirSource) Describe() string {
	return "dir:" + s.Dir
}

func (s *DirSource) Close() error {
	return nil
}

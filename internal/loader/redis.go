package loader

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/redis"
)

// RedisSource loads every string key under Prefix. The document id is the
// key without the prefix; documents are ordered by key.
type RedisSource struct {
	Client *redis.Client
	Prefix string
}

func (s *RedisSource) Load(ctx context.Context) ([]corpus.Document, error) {
	keys, err := s.Client.Keys(ctx, s.Prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	values, ok, err := s.Client.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	docs := make([]corpus.Document, 0, len(keys))
	for i, key := range keys {
		if !ok[i] {
			continue
		}
		id := strings.TrimPrefix(key, s.Prefix)
		if !utf8.ValidString(values[i]) {
			return nil, fmt.Errorf("%w: document %q is not valid UTF-8", apperrors.ErrInvalidInput, id)
		}
		docs = append(docs, corpus.Document{ID: id, Text: values[i]})
	}
	return docs, nil
}

func (s *RedisSource) Check(ctx context.Context) error {
	return s.Client.Ping(ctx)
}

func (s *RedisSource) Describe() string {
	return "redis:" + s.Prefix
}

func (s *RedisSource) Close() error {
	return s.Client.Close()
}

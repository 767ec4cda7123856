package loader

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

// SQLSource runs Query, which must return (id, body) rows. Row order is
// document order, so the query should have an ORDER BY.
type SQLSource struct {
	Client *database.Client
	Query  string
}

func (s *SQLSource) Load(ctx context.Context) ([]corpus.Document, error) {
	rows, err := s.Client.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		var doc corpus.Document
		if err := rows.Scan(&doc.ID, &doc.Text); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if !utf8.ValidString(doc.Text) {
			return nil, fmt.Errorf("%w: document %q is not valid UTF-8", apperrors.ErrInvalidInput, doc.ID)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}

func (s *SQLSource) Check(ctx context.Context) error {
	return s.Client.Ping(ctx)
}

func (s *SQLSource) Describe() string {
	return "sql:" + s.Client.Driver()
}

func (s *SQLSource) Close() error {
	return s.Client.Close()
}

// Package corpus holds the documents a query is answered from: their raw text
// for sentence extraction and their token sequences for scoring. A Corpus is
// immutable once built and may be shared by concurrent queries.
package corpus

import (
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

// Document is one source text, identified by a name unique within the corpus
// (the file name for directory sources).
type Document struct {
	ID   string
	Text string
}

type Corpus struct {
	texts    map[string]string
	words    *Collection
	tokens   int
	loadedAt time.Time
}

// Build tokenizes every document in the given order. Duplicate ids are an
// error.
func Build(docs []Document, tok *tokenizer.Tokenizer) (*Corpus, error) {
	c := &Corpus{
		texts:    make(map[string]string, len(docs)),
		words:    NewCollection(len(docs)),
		loadedAt: time.Now().UTC(),
	}
	for _, doc := range docs {
		tokens := tok.Tokenize(doc.Text)
		if !c.words.Add(doc.ID, tokens) {
			return nil, fmt.Errorf("building corpus: %w: %q", apperrors.ErrDuplicateDocument, doc.ID)
		}
		c.texts[doc.ID] = doc.Text
		c.tokens += len(tokens)
	}
	return c, nil
}

// Words returns the per-document token sequences in load order.
func (c *Corpus) Words() *Collection {
	return c.words
}

func (c *Corpus) Text(id string) (string, bool) {
	text, ok := c.texts[id]
	return text, ok
}

func (c *Corpus) Len() int {
	return c.words.Len()
}

// TokenCount is the total number of tokens across all documents.
func (c *Corpus) TokenCount() int {
	return c.tokens
}

func (c *Corpus) LoadedAt() time.Time {
	return c.loadedAt
}

// Package extract splits the raw text of selected documents into sentences
// and tokenizes them, producing the pseudo-document collection the sentence
// ranker scores.
package extract

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
)

// Segmenter splits a single passage (text without newlines) into sentences.
type Segmenter interface {
	Segment(passage string) []string
}

type Extractor struct {
	tok *tokenizer.Tokenizer
	seg Segmenter
}

func New(tok *tokenizer.Tokenizer, seg Segmenter) *Extractor {
	return &Extractor{tok: tok, seg: seg}
}

// Extract returns every sentence of texts that has at least one token, keyed
// by its trimmed text. A sentence that appears more than once is kept only at
// its first position.
func (e *Extractor) Extract(texts ...string) *corpus.Collection {
	coll := corpus.NewCollection(0)
	for _, text := range texts {
		e.extract(coll, text, nil)
	}
	return coll
}

// ExtractDocuments is Extract over whole documents. The returned map records,
// for every sentence, the id of the first document it was found in.
func (e *Extractor) ExtractDocuments(docs ...corpus.Document) (*corpus.Collection, map[string]string) {
	coll := corpus.NewCollection(0)
	origin := make(map[string]string)
	for _, doc := range docs {
		e.extract(coll, doc.Text, func(sentence string) {
			origin[sentence] = doc.ID
		})
	}
	return coll, origin
}

func (e *Extractor) extract(coll *corpus.Collection, text string, added func(string)) {
	for _, passage := range strings.Split(text, "\n") {
		if strings.TrimSpace(passage) == "" {
			continue
		}
		for _, raw := range e.seg.Segment(passage) {
			sentence := strings.TrimSpace(raw)
			if sentence == "" {
				continue
			}
			tokens := e.tok.Tokenize(sentence)
			if len(tokens) == 0 {
				continue
			}
			if coll.Add(sentence, tokens) && added != nil {
				added(sentence)
			}
		}
	}
}

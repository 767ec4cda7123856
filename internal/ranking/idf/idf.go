// Package idf computes inverse document frequency over a collection. The same
// computation serves the document corpus and the per-query sentence set.
package idf

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
)

// Table maps each token seen in a collection to ln(N/df). It is read-only
// after Compute returns.
type Table struct {
	n       int
	docFreq map[string]int
	values  map[string]float64
}

// Compute builds the table for c. A token enters the table only after it has
// been seen in a member, so df >= 1 and every value is finite and >= 0.
func Compute(c *corpus.Collection) *Table {
	t := &Table{
		n:       c.Len(),
		docFreq: make(map[string]int),
	}
	seen := make(map[string]struct{})
	c.Each(func(_ string, tokens []string) {
		clear(seen)
		for _, token := range tokens {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			t.docFreq[token]++
		}
	})
	t.values = make(map[string]float64, len(t.docFreq))
	for token, df := range t.docFreq {
		t.values[token] = math.Log(float64(t.n) / float64(df))
	}
	return t
}

// Value returns the IDF of token and whether the token occurs in the
// collection.
func (t *Table) Value(token string) (float64, bool) {
	v, ok := t.values[token]
	return v, ok
}

// DocFreq returns the number of members containing token, 0 if none.
func (t *Table) DocFreq(token string) int {
	return t.docFreq[token]
}

// N is the size of the collection the table was computed over.
func (t *Table) N() int {
	return t.n
}

// Len is the vocabulary size.
func (t *Table) Len() int {
	return len(t.values)
}

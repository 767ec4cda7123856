// Package ranker scores documents by TF-IDF and sentences by IDF-weighted
// query-term coverage, and selects the best of each with topn.
package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/idf"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/topn"
)

// Query is a set of normalised tokens. Terms are kept sorted so every score
// is summed in the same order on every run.
type Query struct {
	terms []string
}

func NewQuery(tokens []string) Query {
	set := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, dup := set[t]; dup {
			continue
		}
		set[t] = struct{}{}
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return Query{terms: terms}
}

// Terms returns the distinct query tokens in sorted order.
func (q Query) Terms() []string {
	return q.terms
}

func (q Query) Len() int {
	return len(q.terms)
}

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

type ScoredSentence struct {
	Sentence string  `json:"sentence"`
	Score    float64 `json:"score"`
	Density  float64 `json:"density"`
}

// TopFiles returns the n documents with the highest TF-IDF score for query.
// Equal scores keep the collection's order.
func TopFiles(query Query, files *corpus.Collection, idfs *idf.Table, n int) []ScoredDoc {
	items := make([]topn.Item, 0, files.Len())
	files.Each(func(id string, tokens []string) {
		items = append(items, topn.Item{ID: id, Score: tfidf(query, tokens, idfs)})
	})
	ranked := topn.Select(items, n, nil)
	result := make([]ScoredDoc, len(ranked))
	for i, it := range ranked {
		result[i] = ScoredDoc{DocID: it.ID, Score: it.Score}
	}
	return result
}

// TopSentences returns the n sentences that cover the most IDF weight of the
// query. Equal scores prefer the higher query-term density, then the
// collection's order.
func TopSentences(query Query, sentences *corpus.Collection, idfs *idf.Table, n int) []ScoredSentence {
	items := make([]topn.Item, 0, sentences.Len())
	density := make([]float64, 0, sentences.Len())
	sentences.Each(func(s string, tokens []string) {
		score, d := coverage(query, tokens, idfs)
		items = append(items, topn.Item{ID: s, Score: score})
		density = append(density, d)
	})
	densityOf := make(map[string]float64, len(items))
	for i, it := range items {
		densityOf[it.ID] = density[i]
	}
	ranked := topn.Select(items, n, func(i, j int) bool {
		return density[i] > density[j]
	})
	result := make([]ScoredSentence, len(ranked))
	for i, it := range ranked {
		result[i] = ScoredSentence{Sentence: it.ID, Score: it.Score, Density: densityOf[it.ID]}
	}
	return result
}

// tfidf sums occurrence count times idf over the query terms. Terms missing
// from the table contribute nothing.
func tfidf(query Query, tokens []string, idfs *idf.Table) float64 {
	if query.Len() == 0 {
		return 0
	}
	counts := make(map[string]int, query.Len())
	for _, term := range query.terms {
		counts[term] = 0
	}
	for _, tok := range tokens {
		if _, ok := counts[tok]; ok {
			counts[tok]++
		}
	}
	var score float64
	for _, term := range query.terms {
		v, ok := idfs.Value(term)
		if !ok {
			continue
		}
		score += float64(counts[term]) * v
	}
	return score
}

// coverage sums idf over the distinct query terms present in tokens and
// returns the fraction of tokens that are matched query terms.
func coverage(query Query, tokens []string, idfs *idf.Table) (score, density float64) {
	if query.Len() == 0 || len(tokens) == 0 {
		return 0, 0
	}
	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		present[tok] = struct{}{}
	}
	matched := 0
	for _, term := range query.terms {
		if _, ok := present[term]; !ok {
			continue
		}
		matched++
		if v, ok := idfs.Value(term); ok {
			score += v
		}
	}
	return score, float64(matched) / float64(len(tokens))
}

package ranker

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/ranking/idf"
)

func docs(members ...[]string) *corpus.Collection {
	c := corpus.NewCollection(len(members))
	for i, tokens := range members {
		c.Add(fmt.Sprintf("doc%d", i+1), tokens)
	}
	return c
}

func docIDs(ranked []ScoredDoc) []string {
	out := make([]string, len(ranked))
	for i, d := range ranked {
		out[i] = d.DocID
	}
	return out
}

func TestNewQuery_DedupesAndSorts(t *testing.T) {
	q := NewQuery([]string{"fox", "brown", "fox", "quick"})
	assert.Equal(t, []string{"brown", "fox", "quick"}, q.Terms())
	assert.Equal(t, 3, q.Len())
	assert.Zero(t, NewQuery(nil).Len())
}

func TestTopFiles_WorkedExample(t *testing.T) {
	files := docs([]string{"a", "b"}, []string{"a"})
	table := idf.Compute(files)

	got := TopFiles(NewQuery([]string{"b"}), files, table, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "doc1", got[0].DocID)
	assert.InDelta(t, 0.6931, got[0].Score, 1e-4)
}

func TestTopFiles_CountsOccurrences(t *testing.T) {
	files := docs(
		[]string{"cat", "dog"},
		[]string{"cat", "cat", "cat", "bird"},
		[]string{"fish"},
	)
	table := idf.Compute(files)

	got := TopFiles(NewQuery([]string{"cat"}), files, table, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"doc2", "doc1", "doc3"}, docIDs(got))

	catIDF, _ := table.Value("cat")
	assert.InDelta(t, 3*catIDF, got[0].Score, 1e-12)
	assert.InDelta(t, catIDF, got[1].Score, 1e-12)
	assert.Zero(t, got[2].Score)
}

func TestTopFiles_Limits(t *testing.T) {
	files := docs([]string{"a"}, []string{"b"}, []string{"c"})
	table := idf.Compute(files)
	q := NewQuery([]string{"b"})

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"one", 1, []string{"doc2"}},
		{"capped", 99, []string{"doc2", "doc1", "doc3"}},
		{"zero", 0, []string{}},
		{"negative", -3, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, docIDs(TopFiles(q, files, table, tt.n)))
		})
	}
}

func TestTopFiles_EmptyQueryKeepsFirstSeenOrder(t *testing.T) {
	files := docs([]string{"x"}, []string{"y"}, []string{"z"})
	got := TopFiles(NewQuery(nil), files, idf.Compute(files), 2)
	assert.Equal(t, []string{"doc1", "doc2"}, docIDs(got))
	for _, d := range got {
		assert.Zero(t, d.Score)
	}
}

func TestTopFiles_UnknownTermScoresZero(t *testing.T) {
	files := docs([]string{"a"}, []string{"b"})
	got := TopFiles(NewQuery([]string{"nowhere"}), files, idf.Compute(files), 2)
	assert.Equal(t, []string{"doc1", "doc2"}, docIDs(got))
}

func TestTopFiles_ZeroTokenDocument(t *testing.T) {
	files := docs(nil, []string{"a", "b"})
	got := TopFiles(NewQuery([]string{"b"}), files, idf.Compute(files), 2)
	assert.Equal(t, []string{"doc2", "doc1"}, docIDs(got))
}

func sentences(pairs ...any) *corpus.Collection {
	c := corpus.NewCollection(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		c.Add(pairs[i].(string), pairs[i+1].([]string))
	}
	return c
}

func TestTopSentences_DensityBreaksTies(t *testing.T) {
	// both sentences match the same two query terms; B has twice the tokens
	coll := sentences(
		"B", []string{"alpha", "beta", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8"},
		"A", []string{"alpha", "beta", "v1", "v2", "v3"},
		"C", []string{"other"},
	)
	table := idf.Compute(coll)
	q := NewQuery([]string{"alpha", "beta"})

	got := TopSentences(q, coll, table, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Sentence)
	assert.Equal(t, "B", got[1].Sentence)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.InDelta(t, 0.4, got[0].Density, 1e-12)
	assert.InDelta(t, 0.2, got[1].Density, 1e-12)
	assert.Equal(t, "C", got[2].Sentence)
	assert.Zero(t, got[2].Score)
}

func TestTopSentences_PresenceNotFrequency(t *testing.T) {
	coll := sentences(
		"repeats", []string{"fox", "fox", "fox", "fox"},
		"covers", []string{"fox", "den", "night", "moon"},
		"none", []string{"sun"},
	)
	table := idf.Compute(coll)
	q := NewQuery([]string{"fox", "den"})

	got := TopSentences(q, coll, table, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "covers", got[0].Sentence)

	fox, _ := table.Value("fox")
	den, _ := table.Value("den")
	assert.InDelta(t, fox+den, got[0].Score, 1e-12)
}

func TestTopSentences_EqualScoreEqualDensityKeepsOrder(t *testing.T) {
	coll := sentences(
		"first", []string{"key", "x"},
		"second", []string{"key", "y"},
	)
	got := TopSentences(NewQuery([]string{"key"}), coll, idf.Compute(coll), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Sentence)
	assert.Equal(t, "second", got[1].Sentence)
}

func TestTopSentences_EmptyInputs(t *testing.T) {
	empty := corpus.NewCollection(0)
	assert.Empty(t, TopSentences(NewQuery([]string{"a"}), empty, idf.Compute(empty), 3))

	coll := sentences("s", []string{"a"})
	assert.Empty(t, TopSentences(NewQuery([]string{"a"}), coll, idf.Compute(coll), 0))
}

func randomCollection(rng *rand.Rand, vocab []string) *corpus.Collection {
	c := corpus.NewCollection(0)
	size := 1 + rng.Intn(12)
	for i := 0; i < size; i++ {
		tokens := make([]string, 1+rng.Intn(8))
		for j := range tokens {
			tokens[j] = vocab[rng.Intn(len(vocab))]
		}
		c.Add(fmt.Sprintf("m%d", i), tokens)
	}
	return c
}

func TestRankers_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	vocab := []string{"a", "b", "c", "d", "e", "f", "g"}

	for trial := 0; trial < 100; trial++ {
		coll := randomCollection(rng, vocab)
		table := idf.Compute(coll)
		qTokens := make([]string, rng.Intn(4))
		for i := range qTokens {
			qTokens[i] = vocab[rng.Intn(len(vocab))]
		}
		q := NewQuery(qTokens)
		n := rng.Intn(coll.Len() + 3)

		files := TopFiles(q, coll, table, n)
		assert.LessOrEqual(t, len(files), max(n, 0))
		assert.LessOrEqual(t, len(files), coll.Len())
		seen := map[string]bool{}
		for k, d := range files {
			assert.False(t, seen[d.DocID], "duplicate %s", d.DocID)
			seen[d.DocID] = true
			assert.False(t, math.IsNaN(d.Score))
			if k > 0 {
				assert.GreaterOrEqual(t, files[k-1].Score, d.Score)
			}
		}
		assert.Equal(t, files, TopFiles(q, coll, table, n), "determinism")

		sents := TopSentences(q, coll, table, n)
		assert.LessOrEqual(t, len(sents), coll.Len())
		for k := 1; k < len(sents); k++ {
			prev, cur := sents[k-1], sents[k]
			assert.GreaterOrEqual(t, prev.Score, cur.Score)
			if prev.Score == cur.Score {
				assert.GreaterOrEqual(t, prev.Density, cur.Density)
			}
		}
		assert.Equal(t, sents, TopSentences(q, coll, table, n), "determinism")
	}
}

func BenchmarkTopFiles(b *testing.B) {
	for _, numDocs := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			c := corpus.NewCollection(numDocs)
			for i := 0; i < numDocs; i++ {
				tokens := make([]string, 300)
				for j := range tokens {
					tokens[j] = fmt.Sprintf("term%d", (i*13+j)%700)
				}
				c.Add(fmt.Sprintf("doc-%d", i), tokens)
			}
			table := idf.Compute(c)
			q := NewQuery([]string{"term1", "term42", "term99"})
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = TopFiles(q, c, table, 1)
			}
		})
	}
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/stopwords"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/corpus"
)

// periodSegmenter splits after every ". " and keeps the period.
type periodSegmenter struct{}

func (periodSegmenter) Segment(passage string) []string {
	parts := strings.SplitAfter(passage, ". ")
	return parts
}

func newTestExtractor() *Extractor {
	return New(tokenizer.New(stopwords.English()), periodSegmenter{})
}

func TestExtract_SplitsPassagesAndSentences(t *testing.T) {
	coll := newTestExtractor().Extract("Cats purr. Dogs bark.\nBirds sing loudly.")

	require.Equal(t, []string{"Cats purr.", "Dogs bark.", "Birds sing loudly."}, coll.IDs())
	tokens, ok := coll.Tokens("Birds sing loudly.")
	require.True(t, ok)
	assert.Equal(t, []string{"birds", "sing", "loudly"}, tokens)
}

func TestExtract_DropsSentencesWithoutTokens(t *testing.T) {
	coll := newTestExtractor().Extract("It is. 2020. Rain falls.\n\n   \n...")
	assert.Equal(t, []string{"Rain falls."}, coll.IDs())
}

func TestExtract_CollapsesDuplicates(t *testing.T) {
	coll := newTestExtractor().Extract("Water is wet. Fire is hot.", "Ice is cold. Water is wet.")
	assert.Equal(t, []string{"Water is wet.", "Fire is hot.", "Ice is cold."}, coll.IDs())
}

func TestExtract_Empty(t *testing.T) {
	assert.Zero(t, newTestExtractor().Extract().Len())
	assert.Zero(t, newTestExtractor().Extract("").Len())
}

func TestExtractDocuments_RecordsFirstOrigin(t *testing.T) {
	coll, origin := newTestExtractor().ExtractDocuments(
		corpus.Document{ID: "a.txt", Text: "Shared line here. Unique to alpha."},
		corpus.Document{ID: "b.txt", Text: "Shared line here. Unique to beta."},
	)
	assert.Equal(t, 3, coll.Len())
	assert.Equal(t, "a.txt", origin["Shared line here."])
	assert.Equal(t, "a.txt", origin["Unique to alpha."])
	assert.Equal(t, "b.txt", origin["Unique to beta."])
}

func TestPunkt_Segment(t *testing.T) {
	p, err := NewPunkt()
	require.NoError(t, err)

	got := p.Segment("The cat sat on the mat. The dog barked at the mailman!")
	require.Len(t, got, 2)
	assert.Equal(t, "The cat sat on the mat.", strings.TrimSpace(got[0]))
	assert.Equal(t, "The dog barked at the mailman!", strings.TrimSpace(got[1]))
}

func TestPunkt_WithExtractor(t *testing.T) {
	p, err := NewPunkt()
	require.NoError(t, err)
	ext := New(tokenizer.New(stopwords.English()), p)

	coll := ext.Extract("Python is a programming language. It was created by Guido.\nGo was designed at Google.")
	assert.Equal(t, []string{
		"Python is a programming language.",
		"It was created by Guido.",
		"Go was designed at Google.",
	}, coll.IDs())
}

package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

type AnswerInput struct {
	Query     string `json:"query" jsonschema:"the natural-language question"`
	Files     int    `json:"files,omitempty" jsonschema:"number of documents to draw sentences from"`
	Sentences int    `json:"sentences,omitempty" jsonschema:"number of sentences to return"`
}

type AnswerOutput struct {
	Sentences []SentenceOutput `json:"sentences"`
	Files     []string         `json:"files"`
	Terms     []string         `json:"terms"`
}

type SentenceOutput struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question with the best-matching sentences from the corpus",
	}, s.handleAnswer)
}

func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, AnswerOutput{}, apperrors.Invalidf("query is required")
	}
	lim := s.defaults
	if input.Files > 0 {
		lim.Files = input.Files
	}
	if input.Sentences > 0 {
		lim.Sentences = input.Sentences
	}

	ans, err := s.engine.Answer(ctx, input.Query, lim)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	if s.recorder != nil {
		s.recorder.Record(analytics.FromAnswer(ans, analytics.OriginMCP, ""))
	}
	return nil, toOutput(ans), nil
}

func toOutput(ans *engine.Answer) AnswerOutput {
	out := AnswerOutput{
		Sentences: make([]SentenceOutput, len(ans.Sentences)),
		Files:     make([]string, len(ans.Files)),
		Terms:     ans.Terms,
	}
	for i, sent := range ans.Sentences {
		out.Sentences[i] = SentenceOutput{Text: sent.Text, Score: sent.Score, Source: sent.Source}
	}
	for i, f := range ans.Files {
		out.Files[i] = f.DocID
	}
	return out
}

package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Root(context.Background(), "answer", "trace-1")
	_, tokenize := Start(ctx, "tokenize")
	tokenize.Set("terms", 3)
	tokenize.End()
	_, rank := Start(ctx, "rank_files")
	rank.End()
	root.End()

	assert.Equal(t, "trace-1", tokenize.TraceID())
	assert.Same(t, rank, root.Child("rank_files"))
	assert.Same(t, tokenize, root.Child("tokenize"))
	assert.Nil(t, root.Child("missing"))
	assert.GreaterOrEqual(t, root.Duration(), tokenize.Duration())
}

func TestEnd_FirstCallWins(t *testing.T) {
	_, s := Root(context.Background(), "answer", "")
	first := s.End()
	assert.Positive(t, first)
	assert.Equal(t, first, s.End())
}

func TestStart_NoParent(t *testing.T) {
	ctx, span := Start(context.Background(), "orphan")
	assert.Empty(t, span.TraceID())
	assert.Equal(t, "orphan", span.Name())
	assert.Same(t, span, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestLog_NestedGroups(t *testing.T) {
	ctx, root := Root(context.Background(), "answer", "t-9")
	_, child := Start(ctx, "extract")
	child.Set("sentences", 4)
	child.End()
	root.End()

	var buf bytes.Buffer
	root.Log(ctx, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	assert.Empty(t, buf.String())

	root.Log(ctx, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	var rec struct {
		TraceID string `json:"trace_id"`
		Answer  struct {
			Took    float64 `json:"took"`
			Extract struct {
				Sentences int `json:"sentences"`
			} `json:"extract"`
		} `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "t-9", rec.TraceID)
	assert.Positive(t, rec.Answer.Took)
	assert.Equal(t, 4, rec.Answer.Extract.Sentences)
}

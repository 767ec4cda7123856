package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/logger"
)

// maxLimit caps the files and sentences a single request may ask for.
const maxLimit = 100

type QueryEngine interface {
	Answer(ctx context.Context, rawQuery string, lim engine.Limits) (*engine.Answer, error)
	Stats() engine.Stats
}

type Reloader interface {
	Reload(ctx context.Context) error
}

type Handler struct {
	engine   QueryEngine
	reloader Reloader
	recorder analytics.Recorder
	defaults engine.Limits
	logger   *slog.Logger
}

// NewHandler serves queries against eng. reloader and recorder may be nil.
func NewHandler(eng QueryEngine, reloader Reloader, recorder analytics.Recorder, defaults engine.Limits) *Handler {
	return &Handler{
		engine:   eng,
		reloader: reloader,
		recorder: recorder,
		defaults: defaults,
		logger:   slog.Default().With("component", "answer-handler"),
	}
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, apperrors.Invalidf("query parameter 'q' is required"))
		return
	}
	files, err := limitParam(r, "files", h.defaults.Files)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sentences, err := limitParam(r, "sentences", h.defaults.Sentences)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ans, err := h.engine.Answer(ctx, query, engine.Limits{Files: files, Sentences: sentences})
	if err != nil {
		log.Error("answer failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}
	log.Info("query answered",
		"query", query,
		"files", len(ans.Files),
		"sentences", len(ans.Sentences),
		"latency_ms", ans.Took.Milliseconds(),
	)
	if h.recorder != nil {
		h.recorder.Record(analytics.FromAnswer(ans, analytics.OriginHTTP, logger.RequestID(ctx)))
	}
	h.writeJSON(w, http.StatusOK, ans)
}

func (h *Handler) Corpus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Reload rebuilds the corpus from its source and responds with the new
// corpus stats.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUnsupportedSource, http.StatusNotImplemented, "reload is not configured"))
		return
	}
	if err := h.reloader.Reload(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("reload request failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

// analytics serves the aggregate of the queries answered by this process.
// The optional top parameter sizes the ranked lists.
func (h *Handler) analytics(stats *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if stats == nil {
			h.writeError(w, apperrors.ErrAnalyticsDisabled)
			return
		}
		top, err := limitParam(r, "top", analytics.DefaultTop)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, stats.StatsTop(top))
	}
}

// limitParam reads a positive integer query parameter, capped at maxLimit.
func limitParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.Invalidf("%s must be a positive integer", name)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Server-side failures are reported
// without detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		message = apperrors.ErrInternal.Error()
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

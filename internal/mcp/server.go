// Package mcp serves the question-answering engine to MCP clients over stdio
// or streamable HTTP: an "answer" tool plus read-only corpus resources.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/engine"
)

const serverName = "corpus-qa"

// ErrMissingEngine is returned by NewServer when no engine is given.
var ErrMissingEngine = errors.New("mcp: query engine is required")

// Engine is the part of engine.Engine the MCP server uses.
type Engine interface {
	Answer(ctx context.Context, rawQuery string, lim engine.Limits) (*engine.Answer, error)
	Stats() engine.Stats
	Document(id string) (string, bool)
}

type Server struct {
	engine   Engine
	recorder analytics.Recorder
	defaults engine.Limits
	server   *mcp.Server
	logger   *slog.Logger
}

// NewServer registers the tools and resources. recorder may be nil.
func NewServer(eng Engine, recorder analytics.Recorder, defaults engine.Limits, version string) (*Server, error) {
	if eng == nil {
		return nil, ErrMissingEngine
	}
	s := &Server{
		engine:   eng,
		recorder: recorder,
		defaults: defaults,
		server:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		logger:   slog.Default().With("component", "mcp"),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdin and stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("mcp http shutdown error", "error", err)
		}
	}()

	s.logger.Info("mcp server listening", "transport", "http", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

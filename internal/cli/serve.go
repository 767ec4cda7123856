package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/server"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/watcher"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/health"
)

func newServeCommand(g *globalOptions) *cobra.Command {
	var (
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [corpus-dir]",
		Short: "Serve answers over HTTP",
		Long: `Loads the corpus once and answers questions over a JSON HTTP API:

  GET  /api/v1/answer?q=...&files=N&sentences=M
  GET  /api/v1/corpus
  POST /api/v1/corpus/reload
  GET  /api/v1/analytics
  GET  /health/live, /health/ready

Without corpus-dir the corpus source comes from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			useDir(cfg, args)
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (default from config, 8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the corpus when files in corpus-dir change")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := slog.Default().With("component", "serve")

	aggregator := analytics.NewAggregator()
	reloader := loader.NewReloader(a.src, a.tok, a.engine, a.metrics)

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) error {
		if a.engine.Stats().Documents == 0 {
			return apperrors.ErrEmptyCorpus
		}
		return a.src.Check(ctx)
	})

	if cfg.Metrics.Enabled {
		go func() {
			log.Info("metrics server listening", "port", cfg.Metrics.Port)
			if err := a.metrics.Serve(ctx, cfg.Metrics.Port); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if cfg.Server.Watch {
		if cfg.Corpus.Source != config.SourceDir {
			log.Warn("watch ignored, corpus source is not a directory", "source", cfg.Corpus.Source)
		} else {
			go func() {
				err := watcher.Watch(ctx, cfg.Corpus.Dir, cfg.Server.WatchDebounce.Std(), func(ctx context.Context) {
					if err := reloader.Reload(ctx); err != nil {
						log.Warn("reload after change failed", "error", err)
					}
				})
				if err != nil {
					log.Error("corpus watcher stopped", "error", err)
				}
			}()
		}
	}

	h := server.NewHandler(a.engine, reloader, a.recorder(aggregator), a.limits())
	return server.New(cfg.Server, h, checker, a.metrics, aggregator).Run(ctx)
}

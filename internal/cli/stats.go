package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/kafka"
)

type statsOptions struct {
	fromStart bool
	duration  time.Duration
	save      bool
	history   int
}

func newStatsCommand(g *globalOptions) *cobra.Command {
	o := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate published query events from Kafka",
		Long: `Consumes the analytics topic and prints usage statistics as JSON when
interrupted or after --duration: query counts, latency percentiles, the most
frequent and the unmatched questions, and the documents answers came from.

With --save the result is also stored in the database named by
analytics.snapshotStore; --history N prints the N newest stored snapshots
without consuming.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cmd.OutOrStdout(), cfg, o)
		},
	}
	cmd.Flags().BoolVar(&o.fromStart, "from-start", false, "read the topic from the oldest retained event")
	cmd.Flags().DurationVar(&o.duration, "duration", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().BoolVar(&o.save, "save", false, "store the aggregate as a snapshot")
	cmd.Flags().IntVar(&o.history, "history", 0, "print the newest stored snapshots instead of consuming")
	return cmd
}

func runStats(ctx context.Context, out io.Writer, cfg *config.Config, o *statsOptions) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	var store *analytics.Store
	if o.save || o.history > 0 {
		db, err := openSnapshotDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		store = analytics.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}
	if o.history > 0 {
		snapshots, err := store.Recent(ctx, o.history)
		if err != nil {
			return err
		}
		return enc.Encode(snapshots)
	}

	consumeCtx := ctx
	if o.duration > 0 {
		var cancel context.CancelFunc
		consumeCtx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}
	stats, err := consumeStats(consumeCtx, cfg.Analytics, o.fromStart)
	if err != nil {
		return err
	}
	if store != nil {
		// the consume context is done by now
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := store.Save(saveCtx, stats); err != nil {
			return err
		}
	}
	return enc.Encode(stats)
}

func consumeStats(ctx context.Context, cfg config.AnalyticsConfig, fromStart bool) (analytics.Stats, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return analytics.Stats{}, fmt.Errorf("%w: brokers and topic are required", apperrors.ErrInvalidInput)
	}
	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg, fromStart, aggregator.HandleMessage())
	if err := consumer.Run(ctx); err != nil {
		return analytics.Stats{}, fmt.Errorf("consuming %s: %w", cfg.Topic, err)
	}
	if n := consumer.Failed(); n > 0 {
		slog.Warn("undecodable query events skipped", "count", n, "of", consumer.Handled())
	}
	return aggregator.Stats(), nil
}

// openSnapshotDB connects to the snapshot database with the corpus block's
// connection settings.
func openSnapshotDB(ctx context.Context, cfg *config.Config) (*database.Client, error) {
	switch cfg.Analytics.SnapshotStore {
	case config.SourcePostgres:
		return database.OpenPostgres(ctx, cfg.Corpus.Postgres)
	case config.SourceSQLite:
		return database.OpenSQLite(ctx, cfg.Corpus.SQLite)
	default:
		return nil, fmt.Errorf("%w: analytics.snapshotStore is not set", apperrors.ErrInvalidInput)
	}
}

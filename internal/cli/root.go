// Package cli implements the questions command line: a one-shot query over a
// corpus directory plus long-running serve, mcp and stats subcommands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/logger"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// load reads the configuration and installs the process logger on errOut.
func (g *globalOptions) load(errOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logger.Setup(errOut, cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, nil
}

// useDir points cfg at a corpus directory given on the command line.
func useDir(cfg *config.Config, args []string) {
	if len(args) == 1 {
		cfg.Corpus.Source = config.SourceDir
		cfg.Corpus.Dir = args[0]
	}
}

// NewRootCommand builds the questions command tree.
func NewRootCommand(version string) *cobra.Command {
	g := &globalOptions{}
	root := newAskCommand(g)
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML or TOML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		// arguments are valid by now; later failures are not usage errors
		cmd.SilenceUsage = true
	}

	root.AddCommand(
		newServeCommand(g),
		newMCPCommand(g, version),
		newStatsCommand(g),
		newVersionCommand(version),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

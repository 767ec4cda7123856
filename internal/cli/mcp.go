package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/internal/mcp"
)

func newMCPCommand(g *globalOptions, version string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "mcp [corpus-dir]",
		Short: "Serve answers to MCP clients",
		Long: `Starts a Model Context Protocol server exposing an "answer" tool and the
corpus as resources. By default it speaks JSON-RPC over stdio, so all logs go
to stderr; use --port to serve the streamable HTTP transport instead.

Example client configuration:
  {
    "mcpServers": {
      "questions": {
        "command": "/path/to/questions",
        "args": ["mcp", "/path/to/corpus"]
      }
    }
  }`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			useDir(cfg, args)

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := mcp.NewServer(a.engine, a.recorder(), a.limits(), version)
			if err != nil {
				return err
			}
			if port > 0 {
				return s.RunHTTP(ctx, fmt.Sprintf(":%d", port))
			}
			return s.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use stdio)")
	return cmd
}

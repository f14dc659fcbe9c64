package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sorttrace/pkg/mcp"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/version"
)

func newMCPCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes sorting traces as tools that AI agents can discover and
invoke:
  - sort_algorithms: list the registered algorithms
  - sort_trace: trace an algorithm over an input array
  - sort_replay: the array and metrics at one step of a trace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			red, err := observability.NewREDMetrics(app.providers.Meter)
			if err != nil {
				return err
			}

			eng, _, err := app.newEngine(app.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  app.providers.Logger,
				Metrics: red,
				Tracer:  app.providers.Tracer,
				Engine:  eng,
				Version: version.Version,
			})

			return srv.Run(cmd.Context())
		},
	}
}

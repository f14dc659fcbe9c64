package commands

import (
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
)

func newAlgorithmsCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the registered algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Listing needs no metrics or cache.
			eng := engine.New(engine.WithCacheSize(0), engine.WithLogger(app.providers.Logger))
			algorithms := eng.Algorithms()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				return report.WriteJSON(out, algorithms)
			case "yaml":
				return report.WriteYAML(out, algorithms)
			}

			ids := make([]string, 0, len(algorithms))
			for id := range algorithms {
				ids = append(ids, id)
			}

			slices.Sort(ids)

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"ID", "Name", "Best", "Average", "Worst", "Space", "Stable", "In place"})

			for _, id := range ids {
				meta := algorithms[id]
				tbl.AppendRow(table.Row{
					id, meta.Name,
					meta.TimeComplexity.Best, meta.TimeComplexity.Average, meta.TimeComplexity.Worst,
					meta.SpaceComplexity, yesNo(meta.Stable), yesNo(meta.InPlace),
				})
			}

			_, err := fmt.Fprintln(out, tbl.Render())

			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json, yaml")

	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/config"
	"github.com/Sumatoshi-tech/sorttrace/pkg/generate"
	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

// Output formats rendered by the report package rather than a trace codec.
const (
	formatText = "text"
	formatPlot = "plot"
	formatDump = "dump"
)

// generatorFlags override the generator section of the configuration.
type generatorFlags struct {
	pattern string
	size    int
	min     int
	max     int
	swaps   int
	seed    uint64
}

func (g *generatorFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&g.pattern, "pattern", "", "input pattern: random, sorted, reversed, nearly-sorted, duplicates")
	flags.IntVar(&g.size, "size", 0, "generated array length")
	flags.IntVar(&g.min, "min", 0, "smallest generated value")
	flags.IntVar(&g.max, "max", 0, "largest generated value")
	flags.IntVar(&g.swaps, "swaps", 0, "transpositions applied by nearly-sorted")
	flags.Uint64Var(&g.seed, "seed", 0, "random seed")
}

// options merges changed flags over cfg's generator defaults.
func (g *generatorFlags) options(flags *pflag.FlagSet, cfg *config.Config) (generate.Options, error) {
	opts := cfg.GeneratorOptions()

	if flags.Changed("pattern") {
		pattern, err := generate.ParsePattern(g.pattern)
		if err != nil {
			return generate.Options{}, err
		}

		opts.Pattern = pattern
	}

	if flags.Changed("size") {
		opts.Size = g.size
	}

	if flags.Changed("min") {
		opts.Min = g.min
	}

	if flags.Changed("max") {
		opts.Max = g.max
	}

	if flags.Changed("swaps") {
		opts.Swaps = g.swaps
	}

	if flags.Changed("seed") {
		opts.Seed = g.seed
	}

	return opts, nil
}

type traceCommand struct {
	app *App

	algorithm string
	array     []float64
	format    string
	output    string
	generator generatorFlags
}

func newTraceCommand(app *App) *cobra.Command {
	tc := &traceCommand{app: app}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace an algorithm over an input array",
		Long: `Trace runs a sorting algorithm and writes the resulting document.

The input comes from --array or, when no array is given, from the generator
flags. With --output and no --format the encoding follows the file extension
(.json, .yaml, .gob, .lz4).`,
		Example: `  sorttrace trace --algorithm merge-sort --array 5,3,1,4
  sorttrace trace --pattern reversed --size 50 --format text
  sorttrace trace --array 3,2,1 --output run.lz4`,
		Args: cobra.NoArgs,
		RunE: tc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&tc.algorithm, "algorithm", "a", "", "algorithm id (default from config)")
	flags.Float64SliceVar(&tc.array, "array", nil, "comma-separated input values")
	flags.StringVarP(&tc.format, "format", "f", "", "output format: json, yaml, text, plot, dump, bin, gob")
	flags.StringVarP(&tc.output, "output", "o", "", "write to this file instead of stdout")
	tc.generator.register(flags)

	return cmd
}

func (tc *traceCommand) run(cmd *cobra.Command, _ []string) error {
	cfg := tc.app.cfg

	values := tc.array
	if len(values) == 0 {
		opts, err := tc.generator.options(cmd.Flags(), cfg)
		if err != nil {
			return err
		}

		values, err = generate.Generate(opts)
		if err != nil {
			return fmt.Errorf("generate input: %w", err)
		}
	}

	id := tc.algorithm
	if id == "" {
		id = cfg.Trace.Algorithm
	}

	eng, _, err := tc.app.newEngine(tc.app.providers.Meter)
	if err != nil {
		return err
	}

	doc, err := traceDocument(cmd.Context(), eng, id, values)
	if err != nil {
		return err
	}

	format := tc.resolveFormat(cmd.Flags().Changed("format"))

	return writeOutput(cmd, tc.output, func(w io.Writer) error {
		return writeDocument(w, format, doc)
	})
}

// resolveFormat prefers --format, then the output extension, then config.
func (tc *traceCommand) resolveFormat(explicit bool) string {
	if explicit {
		return tc.format
	}

	if tc.output != "" {
		codec, err := tracefile.CodecFor(tc.output)
		if err == nil {
			return codec.Name()
		}
	}

	return tc.app.cfg.Trace.Format
}

// writeDocument renders doc in format. Codec formats produce files that load
// back with tracefile.Load.
func writeDocument(w io.Writer, format string, doc algorithm.Document) error {
	switch format {
	case formatText:
		return report.WriteText(w, report.Summarize(doc, report.EndStep))
	case formatPlot:
		return report.WritePlot(w, doc)
	case formatDump:
		return report.WriteDump(w, doc)
	}

	codec, err := tracefile.CodecByName(format)
	if err != nil {
		return err
	}

	return tracefile.Write(w, codec, doc)
}

type generateCommand struct {
	app *App

	format    string
	generator generatorFlags
}

func newGenerateCommand(app *App) *cobra.Command {
	gc := &generateCommand{app: app}

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate an input array",
		Example: `  sorttrace generate --pattern nearly-sorted --size 10 --seed 7`,
		Args:    cobra.NoArgs,
		RunE:    gc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&gc.format, "format", "f", "csv", "output format: csv, json, yaml")
	gc.generator.register(flags)

	return cmd
}

func (gc *generateCommand) run(cmd *cobra.Command, _ []string) error {
	opts, err := gc.generator.options(cmd.Flags(), gc.app.cfg)
	if err != nil {
		return err
	}

	values, err := generate.Generate(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch gc.format {
	case "json":
		return report.WriteJSON(out, values)
	case "yaml":
		return report.WriteYAML(out, values)
	default:
		_, err = fmt.Fprintln(out, report.JoinValues(values, ","))

		return err
	}
}

// Package commands implements the sorttrace CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/config"
	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/version"
)

// ErrInvalidInput is returned when an algorithm rejects the input array.
var ErrInvalidInput = errors.New("invalid input")

// App is the state shared by every subcommand. The root command fills it in
// before a subcommand runs and Execute releases it afterwards.
type App struct {
	configPath string
	logLevel   string
	logJSON    bool
	logFile    string

	cfg       *config.Config
	providers observability.Providers
	ready     bool

	// clock drives terminal playback; nil uses the wall clock.
	clock player.Clock
}

// Execute runs the CLI with args and flushes telemetry before returning.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app := &App{}

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	return errors.Join(err, app.close(ctx))
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sorttrace",
		Short: "Trace, replay and inspect sorting algorithms step by step",
		Long: `sorttrace records every compare, swap, mark, merge and split a sorting
algorithm performs and lets you replay, verify, diff and chart the result.

Commands:
  trace       Trace an algorithm over an input array
  replay      Show the array and metrics at one step of a saved trace
  play        Play a trace in the terminal
  serve       Serve the HTTP API and websocket playback
  mcp         Start the MCP server on stdio`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default: ./sorttrace.yaml)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&app.logJSON, "log-json", false, "log as JSON")
	flags.StringVar(&app.logFile, "log-file", "", "also write JSON logs to this file")

	root.AddCommand(
		newTraceCommand(app),
		newReplayCommand(app),
		newPlayCommand(app),
		newVerifyCommand(app),
		newDiffCommand(app),
		newAlgorithmsCommand(app),
		newGenerateCommand(app),
		newServeCommand(app),
		newMCPCommand(app),
		newSchemaCommand(),
		newVersionCommand(),
	)

	return root
}

// setup loads configuration, applies flag overrides and starts observability
// in the mode matching the command being run.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()

	if flags.Changed("log-level") {
		_, levelErr := observability.ParseLevel(a.logLevel)
		if levelErr != nil {
			return levelErr
		}

		cfg.Logging.Level = a.logLevel
	}

	if flags.Changed("log-json") {
		cfg.Logging.JSON = a.logJSON
	}

	if flags.Changed("log-file") {
		cfg.Logging.File = a.logFile
	}

	providers, err := observability.Init(cfg.Observability(modeFor(cmd), version.Version))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	slog.SetDefault(providers.Logger)

	a.cfg = cfg
	a.providers = providers
	a.ready = true

	return nil
}

func (a *App) close(ctx context.Context) error {
	if !a.ready {
		return nil
	}

	a.ready = false

	err := a.providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("observability shutdown: %w", err)
	}

	return nil
}

func modeFor(cmd *cobra.Command) observability.AppMode {
	switch cmd.Name() {
	case "serve":
		return observability.ModeServe
	case "mcp":
		return observability.ModeMCP
	default:
		return observability.ModeCLI
	}
}

// newEngine builds an engine whose trace metrics are recorded on meter.
func (a *App) newEngine(meter metric.Meter) (*engine.Engine, *observability.TraceMetrics, error) {
	traceMetrics, err := observability.NewTraceMetrics(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace metrics: %w", err)
	}

	eng := engine.New(
		engine.WithCacheSize(a.cfg.Trace.CacheSize),
		engine.WithTracer(a.providers.Tracer),
		engine.WithMetrics(traceMetrics),
		engine.WithLogger(a.providers.Logger),
	)

	return eng, traceMetrics, nil
}

// traceDocument runs the engine and turns validation failures into an error.
func traceDocument(ctx context.Context, eng *engine.Engine, id string, values []float64) (algorithm.Document, error) {
	doc, verrs, err := eng.Trace(ctx, id, algorithm.Input{Array: values})
	if err != nil {
		return algorithm.Document{}, err
	}

	if len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, verr := range verrs {
			msgs = append(msgs, verr.Error())
		}

		return algorithm.Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}

	return doc, nil
}

// writeOutput calls write with stdout, or with the file at path when set.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := write(file)
	closeErr := file.Close()

	return errors.Join(writeErr, closeErr)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())

			return err
		},
	}
}

package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/server"
)

const meterName = "sorttrace"

type serveCommand struct {
	app *App

	host string
	port int
}

func newServeCommand(app *App) *cobra.Command {
	sc := &serveCommand{app: app}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and websocket playback",
		Long: `Serve exposes GET /algorithms, POST /trace, the /ws playback socket,
health probes on /healthz and /readyz, and Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&sc.host, "host", "", "listen host (default from config)")
	flags.IntVarP(&sc.port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

func (sc *serveCommand) run(cmd *cobra.Command, _ []string) error {
	cfg := sc.app.cfg.Server

	if cmd.Flags().Changed("host") {
		cfg.Host = sc.host
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = sc.port
	}

	metricsHandler, meterProvider, err := observability.PrometheusHandler()
	if err != nil {
		return err
	}

	meter := meterProvider.Meter(meterName)

	eng, traceMetrics, err := sc.app.newEngine(meter)
	if err != nil {
		return err
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return fmt.Errorf("create RED metrics: %w", err)
	}

	srv := server.New(server.Options{
		Engine:           eng,
		Logger:           sc.app.providers.Logger,
		Tracer:           sc.app.providers.Tracer,
		TraceMetrics:     traceMetrics,
		RED:              red,
		MetricsHandler:   metricsHandler,
		DefaultAlgorithm: sc.app.cfg.Trace.Algorithm,
		Speed:            sc.app.cfg.Player.Speed,
		SendBuffer:       cfg.SendBuffer,
		AllowedOrigins:   cfg.AllowedOrigins,
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		IdleTimeout:      cfg.IdleTimeout,
		Clock:            sc.app.clock,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
}

package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys attached by [ContextHandler].
const (
	LogKeyTraceID   = "trace_id"
	LogKeySpanID    = "span_id"
	LogKeyAlgorithm = "algorithm"
	LogKeyService   = "service"
	LogKeyVersion   = "version"
	LogKeyMode      = "mode"
	LogKeyEnv       = "env"
)

type algorithmKey struct{}

// WithAlgorithm returns ctx tagged with the algorithm being traced. Records
// logged through a [ContextHandler] with that context carry the id.
func WithAlgorithm(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, algorithmKey{}, id)
}

// AlgorithmFrom returns the algorithm id set by [WithAlgorithm].
func AlgorithmFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(algorithmKey{}).(string)

	return id, ok && id != ""
}

// ContextHandler decorates records with the span and algorithm found in the
// logging context. Process attributes are bound once at construction, so
// they stay top level under WithGroup.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next and binds the process attributes from cfg.
func NewContextHandler(next slog.Handler, cfg Config) *ContextHandler {
	attrs := []slog.Attr{
		slog.String(LogKeyService, cfg.ServiceName),
		slog.String(LogKeyMode, string(cfg.Mode)),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String(LogKeyVersion, cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, slog.String(LogKeyEnv, cfg.Environment))
	}

	return &ContextHandler{next: next.WithAttrs(attrs)}
}

// Enabled reports whether the wrapped handler accepts level.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds the context attributes to record and passes it on.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(LogKeyTraceID, sc.TraceID().String()),
			slog.String(LogKeySpanID, sc.SpanID().String()),
		)
	}

	if id, ok := AlgorithmFrom(ctx); ok {
		record.AddAttrs(slog.String(LogKeyAlgorithm, id))
	}

	err := h.next.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("log record: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger. Records go to console as text, or
// JSON when cfg.LogJSON is set. When cfg.LogFile is set every record is also
// appended to that file as JSON; the returned closer releases it.
func NewLogger(cfg Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var out slog.Handler
	if cfg.LogJSON {
		out = slog.NewJSONHandler(console, opts)
	} else {
		out = slog.NewTextHandler(console, opts)
	}

	if cfg.LogFile == "" {
		return slog.New(NewContextHandler(out, cfg)), nopCloser{}, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	out = slogmulti.Fanout(out, slog.NewJSONHandler(file, opts))

	return slog.New(NewContextHandler(out, cfg)), file, nil
}

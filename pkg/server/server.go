// Package server exposes trace generation over HTTP and interactive playback
// over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

const (
	defaultSendBuffer      = 64
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	socketBufferSize       = 1024
	maxRequestBytes        = 1 << 20
)

// ErrNoAlgorithms is reported by the readiness probe when the registry is empty.
var ErrNoAlgorithms = errors.New("no algorithms registered")

// Options configures a Server. Zero values select defaults.
type Options struct {
	Engine         *engine.Engine
	Logger         *slog.Logger
	Tracer         trace.Tracer
	TraceMetrics   *observability.TraceMetrics
	RED            *observability.REDMetrics
	MetricsHandler http.Handler

	// DefaultAlgorithm is used by load commands that name none.
	DefaultAlgorithm string
	Speed            float64
	SendBuffer       int
	AllowedOrigins   []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Clock drives playback. Nil uses the wall clock.
	Clock player.Clock
}

// Server serves the HTTP API and playback sessions.
type Server struct {
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Engine == nil {
		opts.Engine = engine.New()
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("sorttrace")
	}

	if opts.DefaultAlgorithm == "" {
		opts.DefaultAlgorithm = algorithm.MergeSortID
	}

	if opts.Speed == 0 {
		opts.Speed = player.DefaultSpeed
	}

	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	if opts.Clock == nil {
		opts.Clock = player.RealClock()
	}

	return &Server{
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  socketBufferSize,
			WriteBufferSize: socketBufferSize,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
		sessions: make(map[*session]struct{}),
	}
}

// Handler returns the routed, traced HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.checkRegistry))
	mux.HandleFunc("GET /algorithms", s.handleAlgorithms)
	mux.HandleFunc("POST /trace", s.handleTrace)
	mux.HandleFunc("GET /ws", s.handleSocket)

	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	return observability.HTTPMiddleware(s.opts.Tracer, mux)
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled, then closes
// every playback session and shuts the server down.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "server: listening", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.closeSessions()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "server: stopped")

	return nil
}

// Sessions returns the number of open playback sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Server) checkRegistry(context.Context) error {
	if len(s.opts.Engine.Registry().IDs()) == 0 {
		return ErrNoAlgorithms
	}

	return nil
}

func (s *Server) handleAlgorithms(rw http.ResponseWriter, hr *http.Request) {
	writeJSON(hr.Context(), rw, http.StatusOK, s.opts.Engine.Algorithms())
}

type traceRequest struct {
	Algorithm string    `json:"algorithm"`
	Array     []float64 `json:"array"`
}

type traceErrorResponse struct {
	Error  string                      `json:"error"`
	Errors []algorithm.ValidationError `json:"errors,omitempty"`
}

func (s *Server) handleTrace(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()
	start := time.Now()
	status := observability.StatusOK

	defer func() {
		s.opts.RED.RecordRequest(ctx, "http.trace", status, time.Since(start))
	}()

	var req traceRequest

	err := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, maxRequestBytes)).Decode(&req)
	if err != nil {
		status = observability.StatusError
		writeJSON(ctx, rw, http.StatusBadRequest, traceErrorResponse{Error: "invalid request body"})

		return
	}

	if req.Algorithm == "" {
		req.Algorithm = s.opts.DefaultAlgorithm
	}

	doc, verrs, err := s.opts.Engine.Trace(ctx, req.Algorithm, algorithm.Input{Array: req.Array})

	switch {
	case errors.Is(err, engine.ErrUnknownAlgorithm):
		status = observability.StatusError
		writeJSON(ctx, rw, http.StatusNotFound, traceErrorResponse{Error: err.Error()})
	case err != nil:
		status = observability.StatusError
		writeJSON(ctx, rw, http.StatusInternalServerError, traceErrorResponse{Error: err.Error()})
	case len(verrs) > 0:
		status = observability.StatusError
		writeJSON(ctx, rw, http.StatusUnprocessableEntity, traceErrorResponse{Error: "invalid input", Errors: verrs})
	default:
		writeJSON(ctx, rw, http.StatusOK, doc)
	}
}

func (s *Server) track(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess] = struct{}{}
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sess)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))

	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.shutdown("server shutting down")
	}
}

// writeJSON encodes value as the response body.
func writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and any origin listed in allowed. "*" allows every origin.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(hr *http.Request) bool {
		origin := hr.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}

		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}

		return strings.EqualFold(parsed.Host, hr.Host)
	}
}

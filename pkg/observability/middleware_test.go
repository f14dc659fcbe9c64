package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
)

func newRecordingTracer(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return exporter, tp
}

func TestHTTPMiddleware_CreatesSpan(t *testing.T) {
	t.Parallel()

	exporter, tp := newRecordingTracer(t)

	mw := observability.HTTPMiddleware(tp.Tracer("test"), http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trace", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /trace", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestHTTPMiddleware_ServerErrorMarksSpan(t *testing.T) {
	t.Parallel()

	exporter, tp := newRecordingTracer(t)

	mw := observability.HTTPMiddleware(tp.Tracer("test"), http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))

	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/algorithms", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestHTTPMiddleware_HijackUnsupported(t *testing.T) {
	t.Parallel()

	_, tp := newRecordingTracer(t)

	var hijackErr error

	mw := observability.HTTPMiddleware(tp.Tracer("test"), http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		hijacker, ok := rw.(http.Hijacker)
		require.True(t, ok)

		_, _, hijackErr = hijacker.Hijack()
	}))

	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", http.NoBody))

	require.ErrorIs(t, hijackErr, observability.ErrHijackUnsupported)
}

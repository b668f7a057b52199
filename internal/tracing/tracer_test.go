package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/talenthium/patchtree/internal/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid(), "noop spans carry no ids")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter")
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestNewProvider_NoneExporterStillIssuesIDs(t *testing.T) {
	provider, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	_, span := provider.Tracer().Start(context.Background(), "correlate")
	require.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestNewProvider_FileExporterWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	provider, err := NewProvider(config.TracingConfig{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   path,
		SampleRate: 1.0,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	ctx, parent := provider.Tracer().Start(context.Background(), "api.commit_diff")
	_, child := Start(ctx, provider.Tracer(), "cache.lookup", attribute.Bool(AttrCacheHit, false))
	Finish(child, errors.New("upstream 502"))
	child.End()
	parent.End()

	// Shutdown flushes the batcher
	require.NoError(t, provider.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	byName := map[string]SpanRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}
	lookup := byName["cache.lookup"]
	require.Equal(t, "ERROR", lookup.Status)
	require.Equal(t, "upstream 502", lookup.StatusMsg)
	require.Equal(t, false, lookup.Attributes[AttrCacheHit])
	require.Equal(t, byName["api.commit_diff"].SpanID, lookup.ParentSpanID)
	require.NotEmpty(t, lookup.Events, "RecordError adds an exception event")
}

func TestFileExporter_ShutdownIdempotent(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.Error(t, exp.ExportSpans(context.Background(), nil))
}

func TestStart_NilTracer(t *testing.T) {
	ctx := context.Background()
	got, span := Start(ctx, nil, "anything")
	require.Equal(t, ctx, got)
	require.False(t, span.IsRecording())
	Finish(span, nil)
	span.End()
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestGinMiddleware_RecordsRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec, tp := newRecorder()

	r := gin.New()
	r.Use(GinMiddleware(tp.Tracer("test")))
	r.GET("/api/snapshots/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/abc", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "http.GET /api/snapshots/:id", spans[0].Name())
	require.Equal(t, codes.Ok, spans[0].Status().Code, "4xx is a client outcome")
	require.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestGinMiddleware_NilTracerPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(nil))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, "ok", w.Body.String())
}

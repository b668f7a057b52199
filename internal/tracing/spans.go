package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrProjectID  = "project.id"
	AttrCommitHash = "commit.hash"
	AttrRepoOwner  = "repo.owner"
	AttrRepoName   = "repo.name"
	AttrFilePath   = "file.path"
	AttrFileCount  = "diff.files"
	AttrCacheHit   = "cache.hit"
	AttrHTTPStatus = "http.status_code"
	AttrHTTPRoute  = "http.route"
	AttrHTTPMethod = "http.method"
	AttrSnapshotID = "snapshot.id"
)

// Span name prefixes.
const (
	SpanPrefixAPI    = "api."
	SpanPrefixStore  = "store."
	SpanPrefixServer = "http."
	SpanPrefixGit    = "git."
)

// Start opens a span when tracer is non-nil; otherwise it returns ctx and a
// non-recording span so callers can always defer End.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Finish records err on span (if any) and sets the status accordingly.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

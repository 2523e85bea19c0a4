package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type exchangeKey struct{}

type exchange struct {
	id      uint64
	started time.Time
}

type restyHooks struct {
	tracer trace.Tracer
	nextId atomic.Uint64
}

// InstrumentResty starts a span per request and writes debug lines for
// every request and response. Request bodies are never recorded here
// since they may contain credentials.
func InstrumentResty(client *resty.Client, tracerName string) {
	h := &restyHooks{tracer: otel.Tracer(tracerName)}
	client.OnBeforeRequest(h.start)
	client.OnAfterResponse(h.finish)
	client.OnError(h.fail)
}

func exchangeOf(ctx context.Context) (exchange, bool) {
	ex, ok := ctx.Value(exchangeKey{}).(exchange)
	return ex, ok
}

func (h *restyHooks) start(_ *resty.Client, req *resty.Request) error {
	ex := exchange{id: h.nextId.Add(1), started: time.Now()}

	ctx, span := h.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(attribute.Int64("http.request.id", int64(ex.id)))
	ctx = context.WithValue(ctx, exchangeKey{}, ex)
	req.SetContext(ctx)

	slog.DebugContext(ctx, "http request", "id", ex.id, "method", req.Method, "url", req.URL)
	return nil
}

func (h *restyHooks) finish(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	ex, ok := exchangeOf(ctx)
	if !ok {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(res.Request.Method),
		semconv.URLFull(res.Request.URL),
		semconv.HTTPResponseStatusCode(res.StatusCode()),
		attribute.Int("http.response.body.size", len(res.Body())),
	)
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, res.Status())
	}

	slog.DebugContext(
		ctx, "http response",
		"id", ex.id,
		"status", res.StatusCode(),
		"bytes", len(res.Body()),
		"duration", time.Since(ex.started).String(),
	)
	return nil
}

func (h *restyHooks) fail(req *resty.Request, err error) {
	ctx := req.Context()
	ex, ok := exchangeOf(ctx)
	if !ok {
		// failed in an earlier hook, the span in ctx belongs to the caller
		slog.WarnContext(ctx, "http request failed before sending", "method", req.Method, "url", req.URL, "err", err)
		return
	}
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL),
	)

	slog.WarnContext(
		ctx, "http request failed",
		"id", ex.id,
		"method", req.Method,
		"url", req.URL,
		"duration", time.Since(ex.started).String(),
		"err", err,
	)
}

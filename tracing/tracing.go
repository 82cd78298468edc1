// Copyright 2021 The httpclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracing records an OpenTelemetry span for every verb call of
// an httpclient.Client.
//
// The span is a child of any span in the plan's context. It carries an
// event per attempt, and its context is propagated to the server in
// the request headers of every attempt.
package tracing

import (
	"context"
	"strconv"

	"github.com/curlsdk/httpclient"
	"github.com/curlsdk/httpclient/request"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used when no tracer provider
// is given.
const TracerName = "github.com/curlsdk/httpclient"

type spanKey struct{}

// Tracer creates spans for verb calls.
type Tracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// An Option configures a Tracer.
type Option func(*Tracer)

// WithTracerProvider makes the Tracer use tp instead of the global
// tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithPropagator makes the Tracer use p instead of the global text map
// propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = p
	}
}

// New creates a Tracer. Without options it uses the global tracer
// provider and propagator.
func New(opts ...Option) *Tracer {
	t := &Tracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(TracerName)
	}
	if t.propagator == nil {
		t.propagator = otel.GetTextMapPropagator()
	}
	return t
}

// Install adds the tracer's handlers to g.
func (t *Tracer) Install(g *httpclient.HandlerGroup) {
	g.PushBack(httpclient.BeforeExecutionStart, httpclient.HandlerFunc(t.start))
	g.PushBack(httpclient.BeforeAttempt, httpclient.HandlerFunc(t.beforeAttempt))
	g.PushBack(httpclient.AfterAttempt, httpclient.HandlerFunc(t.afterAttempt))
	g.PushBack(httpclient.AfterExecutionEnd, httpclient.HandlerFunc(t.end))
}

// SpanFromExecution returns the span recorded for e, or a non-recording
// span if there is none.
func SpanFromExecution(e *request.Execution) trace.Span {
	if span, ok := e.Value(spanKey{}).(trace.Span); ok {
		return span
	}
	return trace.SpanFromContext(context.Background())
}

func (t *Tracer) start(_ httpclient.Event, e *request.Execution) {
	_, span := t.tracer.Start(e.Plan.Context(), "HTTP "+e.Plan.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", e.Plan.Method),
			attribute.String("url.full", e.Plan.URL.Redacted()),
			attribute.String("server.address", e.Plan.URL.Hostname()),
			attribute.String("httpclient.execution_id", e.ID),
		),
	)
	e.SetValue(spanKey{}, span)
}

func (t *Tracer) beforeAttempt(_ httpclient.Event, e *request.Execution) {
	span := SpanFromExecution(e)
	span.AddEvent("attempt", trace.WithAttributes(attribute.Int("attempt", e.Attempts())))
	e.Request.Header = e.Request.Header.Clone()
	ctx := trace.ContextWithSpan(e.Request.Context(), span)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(e.Request.Header))
}

func (t *Tracer) afterAttempt(_ httpclient.Event, e *request.Execution) {
	attrs := []attribute.KeyValue{attribute.Int("attempt", e.Attempts())}
	if e.Response != nil {
		attrs = append(attrs, attribute.Int("http.response.status_code", e.StatusCode()))
	}
	if e.Err != nil {
		attrs = append(attrs, attribute.String("error", e.Err.Error()))
	}
	SpanFromExecution(e).AddEvent("attempt.end", trace.WithAttributes(attrs...))
}

func (t *Tracer) end(_ httpclient.Event, e *request.Execution) {
	span := SpanFromExecution(e)
	span.SetAttributes(
		attribute.Int("httpclient.attempts", e.Attempts()),
		attribute.Int("httpclient.attempt_timeouts", e.AttemptTimeouts),
	)
	if e.Response != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", e.StatusCode()))
	}
	switch {
	case e.Err != nil:
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	case !httpclient.Succeeded(e):
		span.SetStatus(codes.Error, "unexpected status "+strconv.Itoa(e.StatusCode()))
	}
	span.End()
}

// Package telemetry wraps every tool invocation (pkg/tools) and executor
// step (pkg/executor) in an OpenTelemetry span plus a duration/outcome
// metric, per §4.15. It only ever talks to the globally installed
// TracerProvider/MeterProvider — cmd/ is responsible for installing a real
// SDK exporter; with none installed, otel's default no-op implementations
// make every call here a cheap no-op, so pkg/tools and pkg/executor never
// need to know whether tracing is actually wired up.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/codeready-toolchain/nurseresearch"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	toolCalls, _      = meter.Int64Counter("nurseresearch.tool.calls", metric.WithDescription("Tool adapter invocations, by tool and outcome"))
	toolDuration, _   = meter.Float64Histogram("nurseresearch.tool.duration_ms", metric.WithDescription("Tool adapter round-trip latency in milliseconds"))
	stepCalls, _      = meter.Int64Counter("nurseresearch.executor.steps", metric.WithDescription("Executor task steps, by agent key and outcome"))
	stepDuration, _   = meter.Float64Histogram("nurseresearch.executor.step_duration_ms", metric.WithDescription("Executor task step latency in milliseconds"))
	cacheLookups, _   = meter.Int64Counter("nurseresearch.tool.cache_lookups", metric.WithDescription("HTTP cache lookups, by tool and hit/miss"))
	breakerRejects, _ = meter.Int64Counter("nurseresearch.breaker.rejections", metric.WithDescription("Calls rejected by an open circuit breaker, by endpoint"))
)

// EndFunc closes the span and records the outcome metric started by
// StartToolCall/StartStep. Call it exactly once, passing the error (if any)
// the wrapped operation returned.
type EndFunc func(err error)

// StartToolCall starts a span and timer around one Fetcher.GetJSON call.
// endpoint is the adapter/vendor name (e.g. "pubmed"), op is the HTTP verb
// or sub-operation being performed.
func StartToolCall(ctx context.Context, endpoint, op string) (context.Context, EndFunc) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "tool."+endpoint,
		trace.WithAttributes(
			attribute.String("tool.name", endpoint),
			attribute.String("tool.op", op),
		))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		attrs := metric.WithAttributes(attribute.String("tool", endpoint), attribute.String("outcome", outcome))
		toolCalls.Add(ctx, 1, attrs)
		toolDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

// RecordCacheLookup records a single HTTP cache lookup outcome for endpoint.
func RecordCacheLookup(ctx context.Context, endpoint string, hit bool) {
	cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", endpoint),
		attribute.Bool("hit", hit),
	))
}

// RecordBreakerRejection records one call rejected by an open circuit for endpoint.
func RecordBreakerRejection(ctx context.Context, endpoint string) {
	breakerRejects.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", endpoint)))
}

// StartStep starts a span and timer around one Executor task invocation.
func StartStep(ctx context.Context, runID, agentKey, action string) (context.Context, EndFunc) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "executor.step."+agentKey,
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("agent.key", agentKey),
			attribute.String("agent.action", action),
		))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		attrs := metric.WithAttributes(attribute.String("agent", agentKey), attribute.String("outcome", outcome))
		stepCalls.Add(ctx, 1, attrs)
		stepDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/execkit/errors"
)

// Execution statuses used as the "status" metric attribute.
const (
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusTimedOut    = "timed_out"
	StatusCanceled    = "canceled"
	StatusSpawnFailed = "spawn_failed"
)

// StatusOf maps an execution error to a metric status.
func StatusOf(err error) string {
	if err == nil {
		return StatusCompleted
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeWatchdogTermination:
		return StatusTimedOut
	case errors.ErrCodeCanceled:
		return StatusCanceled
	case errors.ErrCodeSpawnFailure, errors.ErrCodeMalformedCommand, errors.ErrCodeMissingVariable:
		return StatusSpawnFailed
	default:
		return StatusFailed
	}
}

// ExecutionMetrics holds instruments for process executions. A nil
// *ExecutionMetrics records nothing.
type ExecutionMetrics struct {
	total         metric.Int64Counter
	duration      metric.Float64Histogram
	active        metric.Int64UpDownCounter
	watchdogKills metric.Int64Counter
}

// NewExecutionMetrics creates execution instruments on the given meter.
func NewExecutionMetrics(meter metric.Meter) (*ExecutionMetrics, error) {
	total, err := meter.Int64Counter("execution.total",
		metric.WithDescription("Total number of finished executions by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating execution.total counter: %w", err)
	}

	duration, err := meter.Float64Histogram("execution.duration",
		metric.WithDescription("Wall-clock duration of executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating execution.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("execution.active",
		metric.WithDescription("Number of currently running processes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating execution.active gauge: %w", err)
	}

	watchdogKills, err := meter.Int64Counter("watchdog.kills",
		metric.WithDescription("Processes killed for exceeding their timeout"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating watchdog.kills counter: %w", err)
	}

	return &ExecutionMetrics{
		total:         total,
		duration:      duration,
		active:        active,
		watchdogKills: watchdogKills,
	}, nil
}

// ExecutionStarted increments the running-process count.
func (m *ExecutionMetrics) ExecutionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, 1)
}

// ExecutionFinished decrements the running count and records the outcome.
// started reports whether the process was ever running.
func (m *ExecutionMetrics) ExecutionFinished(ctx context.Context, executable, status string, started bool, d time.Duration) {
	if m == nil {
		return
	}
	if started {
		m.active.Add(ctx, -1)
	}
	m.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("executable", executable),
		attribute.String(AttrStatus, status),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("executable", executable),
	))
}

// WatchdogKill counts a timeout kill.
func (m *ExecutionMetrics) WatchdogKill(ctx context.Context, timeout time.Duration) {
	if m == nil {
		return
	}
	m.watchdogKills.Add(ctx, 1, metric.WithAttributes(
		attribute.String("timeout", timeout.String()),
	))
}

// StartExecutionSpan starts a span for one execution.
func StartExecutionSpan(ctx context.Context, id, executable string, args []string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanExecute,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrExecutionID, id),
			attribute.String(AttrExecutable, executable),
			attribute.StringSlice(AttrArguments, args),
		),
	)
}

// EndExecutionSpan annotates span with the outcome and ends it.
func EndExecutionSpan(span trace.Span, exitCode int, killed bool, err error) {
	span.SetAttributes(
		attribute.Int(AttrExitCode, exitCode),
		attribute.Bool(AttrKilledByWatchdog, killed),
		attribute.String(AttrStatus, StatusOf(err)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorCode, string(errors.CodeOf(err))))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Package observability provides OpenTelemetry tracing and metrics for
// process executions and the HTTP API.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("execkit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartExecutionSpan(ctx, id, "/usr/bin/lpr", argv)
//	defer observability.EndExecutionSpan(span, code, killed, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("execkit"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewExecutionMetrics(observability.Meter("execkit"))
//	metrics.ExecutionFinished(ctx, "/usr/bin/lpr", observability.StatusCompleted, true, elapsed)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("execkit", version.Get().Short())
//	health.AddComponent(registry.CheckHealth(ctx))
package observability

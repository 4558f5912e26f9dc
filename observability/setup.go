package observability

import (
	"context"
	stderrors "errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers bundles the tracer and meter providers installed by Setup.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Setup installs both providers. If the meter fails, the tracer is shut down
// before returning.
func Setup(ctx context.Context, tc TracerConfig, mc MeterConfig) (*Providers, error) {
	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, mc)
	if err != nil {
		return nil, stderrors.Join(err, tp.Shutdown(ctx))
	}
	return &Providers{Tracer: tp, Meter: mp}, nil
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}

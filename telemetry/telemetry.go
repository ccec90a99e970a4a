// Package telemetry configures OpenTelemetry tracing for medgas. Outbound
// API calls are traced by the client through the global tracer provider, so
// nothing is recorded until NewProvider has run.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// flushTimeout bounds Shutdown when the caller passes a context without a
// deadline.
const flushTimeout = 5 * time.Second

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is the OTLP/gRPC collector address. Empty keeps spans in
	// process, where they are sampled and dropped.
	OTLPEndpoint string

	// SamplingRate for root spans, 0.0-1.0. Child spans follow their parent.
	SamplingRate float64

	Enabled bool
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  "medgas",
		Environment:  "development",
		SamplingRate: 1.0,
		Enabled:      true,
	}
}

// Provider owns the tracer provider installed as the global one.
type Provider struct {
	name string
	tp   *sdktrace.TracerProvider
}

// NewProvider installs a tracer provider and the W3C trace-context
// propagator. A disabled config returns a provider that records nothing.
func NewProvider(cfg Config) (*Provider, error) {
	p := &Provider{name: cfg.ServiceName}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SamplingRate))),
	}
	if cfg.OTLPEndpoint != "" {
		exp, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	p.tp = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return p, nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	// resource.New leaves the schema URL to the detectors, so the SDK's own
	// schema version never clashes with ours.
	return resource.New(context.Background(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes pending spans to the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns a named tracer, falling back to the global provider when
// telemetry is disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(p.name)
	}
	return p.tp.Tracer(p.name)
}

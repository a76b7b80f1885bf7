// Package telemetry wires OpenTelemetry tracing and metrics. Disabled by
// default: when no endpoint is configured every tracer and meter in the
// program degrades to the OTEL no-op implementations.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// ErrInvalidConfig indicates an invalid telemetry configuration.
var ErrInvalidConfig = errors.New("invalid telemetry config")

// Config holds telemetry configuration.
type Config struct {
	// Enabled turns exporting on. Off by default.
	Enabled bool `koanf:"enabled"`
	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `koanf:"endpoint"`
	// Insecure disables transport security toward the collector.
	Insecure bool `koanf:"insecure"`
	// SampleRate is the trace sampling ratio in [0,1].
	SampleRate float64 `koanf:"sample_rate"`

	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.ServiceName == "" {
		c.ServiceName = "docrank"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("%w: sample rate %.3f outside [0,1]", ErrInvalidConfig, c.SampleRate)
	}
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint required when enabled", ErrInvalidConfig)
	}
	return nil
}

// Telemetry holds the installed providers for shutdown.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logger         *zap.Logger
}

// Setup installs global tracer and meter providers. When cfg.Enabled is
// false it returns a Telemetry whose Shutdown is a no-op and leaves the
// globals alone.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Enabled {
		return &Telemetry{logger: logger}, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("telemetry enabled",
		zap.String("endpoint", cfg.Endpoint),
		zap.Float64("sample_rate", cfg.SampleRate),
	)
	return &Telemetry{tracerProvider: tp, meterProvider: mp, logger: logger}, nil
}

// Shutdown flushes and stops the providers. Safe to call when telemetry
// was disabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer provider: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

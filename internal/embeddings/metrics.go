package embeddings

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/docrank/internal/embeddings"

// Metrics holds embedding-related instruments.
type Metrics struct {
	meter     metric.Meter
	logger    *zap.Logger
	duration  metric.Float64Histogram
	batchSize metric.Int64Histogram
	errors    metric.Int64Counter
}

// NewMetrics creates a Metrics instance for embeddings. Instrument creation
// failures are logged, never fatal.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"docrank.embedding.generation_duration_seconds",
		metric.WithDescription("Duration of embedding generation in seconds, labeled by provider and operation (embed, batch_embed)"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.batchSize, err = m.meter.Int64Histogram(
		"docrank.embedding.batch_size",
		metric.WithDescription("Number of texts per embedding batch request"),
		metric.WithUnit("{text}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		m.logger.Warn("failed to create batch size histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"docrank.embedding.errors_total",
		metric.WithDescription("Total embedding generation errors by provider and operation"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create errors counter", zap.Error(err))
	}
}

// RecordEmbed records one embedding call.
func (m *Metrics) RecordEmbed(ctx context.Context, provider, operation string, batch int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	)
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if m.batchSize != nil {
		m.batchSize.Record(ctx, int64(batch), attrs)
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

// InstrumentedProvider wraps a Provider with metrics recording.
type InstrumentedProvider struct {
	Provider
	name    string
	metrics *Metrics
}

// NewInstrumentedProvider wraps p so every call records metrics under name.
func NewInstrumentedProvider(p Provider, name string, metrics *Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: p, name: name, metrics: metrics}
}

// EmbedQuery generates a query embedding and records duration and errors.
func (ip *InstrumentedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := ip.Provider.EmbedQuery(ctx, text)
	ip.metrics.RecordEmbed(ctx, ip.name, "embed", 1, time.Since(start), err)
	return vec, err
}

// EmbedDocuments generates document embeddings and records metrics.
func (ip *InstrumentedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := ip.Provider.EmbedDocuments(ctx, texts)
	ip.metrics.RecordEmbed(ctx, ip.name, "batch_embed", len(texts), time.Since(start), err)
	return vecs, err
}

var _ Provider = (*InstrumentedProvider)(nil)

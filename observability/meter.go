package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Debug("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// SpawnMetrics holds the instruments recorded around child processes.
// A nil *SpawnMetrics is valid and records nothing.
type SpawnMetrics struct {
	spawnTotal   metric.Int64Counter
	active       metric.Int64UpDownCounter
	lifetime     metric.Float64Histogram
	failureTotal metric.Int64Counter
}

// NewSpawnMetrics creates metric instruments on the given meter.
func NewSpawnMetrics(meter metric.Meter) (*SpawnMetrics, error) {
	spawnTotal, err := meter.Int64Counter("process.spawn.total",
		metric.WithDescription("Children successfully spawned"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.spawn.total counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("process.active",
		metric.WithDescription("Children spawned and not yet reaped"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.active counter: %w", err)
	}

	lifetime, err := meter.Float64Histogram("process.lifetime",
		metric.WithDescription("Time from spawn to reap"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.lifetime histogram: %w", err)
	}

	failureTotal, err := meter.Int64Counter("process.failure.total",
		metric.WithDescription("Spawn and join failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.failure.total counter: %w", err)
	}

	return &SpawnMetrics{
		spawnTotal:   spawnTotal,
		active:       active,
		lifetime:     lifetime,
		failureTotal: failureTotal,
	}, nil
}

// RecordSpawn records the outcome of a start. kind is "command" or "async".
func (m *SpawnMetrics) RecordSpawn(ctx context.Context, kind string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.recordFailure(ctx, kind, "start", err)
		return
	}
	m.spawnTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordReap records a join after a successful spawn.
func (m *SpawnMetrics) RecordReap(ctx context.Context, kind string, lifetime time.Duration, err error) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String("kind", kind)))
	m.lifetime.Record(ctx, lifetime.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(err)),
	))
	if err != nil {
		m.recordFailure(ctx, kind, "wait", err)
	}
}

func (m *SpawnMetrics) recordFailure(ctx context.Context, kind, phase string, err error) {
	m.failureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("phase", phase),
		attribute.String("code", outcome(err)),
	))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "unknown"
}

// Package observe records HTTP and download metrics with OpenTelemetry and
// exposes them in the Prometheus text format.
package observe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/kartiksrathod/Eduu"

// Metrics records server metrics.
//
// Implementations must be safe for concurrent use and must not panic.
type Metrics interface {
	RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration)
	RecordDownload(ctx context.Context, kind string)
}

type metricsImpl struct {
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	downloads metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	requests, err := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"http.server.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	downloads, err := meter.Int64Counter(
		"resources.downloads",
		metric.WithDescription("Resource file downloads"),
		metric.WithUnit("{download}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{requests: requests, duration: duration, downloads: downloads}, nil
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.requests.Add(ctx, 1, opt)
	m.duration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordDownload(ctx context.Context, kind string) {
	m.downloads.Add(ctx, 1, metric.WithAttributes(attribute.String("resource.kind", kind)))
}

type noopMetrics struct{}

func (noopMetrics) RecordRequest(context.Context, string, string, int, time.Duration) {}
func (noopMetrics) RecordDownload(context.Context, string) {}

// Noop returns Metrics that discards everything.
func Noop() Metrics {
	return noopMetrics{}
}

// Provider owns the meter provider and the registry the exporter writes to.
type Provider struct {
	Metrics
	provider *sdkmetric.MeterProvider
	registry *promclient.Registry
}

// NewProvider builds a Prometheus-backed provider on a private registry and
// installs it as the global meter provider.
func NewProvider() (*Provider, error) {
	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m, err := newMetrics(provider.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	return &Provider{Metrics: m, provider: provider, registry: registry}, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

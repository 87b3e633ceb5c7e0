// Package metrics exposes OpenTelemetry instruments through a Prometheus
// registry: dataspace operation metrics, HTTP request metrics and the Go
// runtime collectors.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider ties the browser's meters to the registry scraped on the metrics port.
type Provider struct {
	meterProvider *metric.MeterProvider
	registry      *prometheus.Registry
}

// NewProvider builds the registry with the process and Go runtime collectors.
// The target_info series carries service.name set to namespace plus labels,
// which lets one Prometheus tell apart browsers pointed at different realms.
func NewProvider(namespace string, labels ...attribute.KeyValue) (*Provider, error) {
	registry := prometheus.NewRegistry()
	for name, collector := range map[string]prometheus.Collector{
		"go":      collectors.NewGoCollector(),
		"process": collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register %s collector: %w", name, err)
		}
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	attrs := append([]attribute.KeyValue{attribute.String("service.name", namespace)}, labels...)
	return &Provider{
		meterProvider: metric.NewMeterProvider(
			metric.WithReader(exporter),
			metric.WithResource(resource.NewSchemaless(attrs...)),
		),
		registry: registry,
	}, nil
}

// Handler serves the registry, OpenMetrics when the scraper asks for it.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// MeterProvider feeds NewBusinessMetrics and HTTPMetricsMiddleware.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown stops collection. A zero Provider has nothing to stop.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

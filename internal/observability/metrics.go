// Package observability records deploy run metrics with OpenTelemetry and
// exports them through a private Prometheus registry, so a run can leave a
// textfile for the node_exporter textfile collector.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Release outcomes recorded by RecordRelease.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics holds the instruments of a deploy run.
type Metrics struct {
	// provider owns the instruments and feeds the Prometheus exporter.
	provider *sdkmetric.MeterProvider
	// registry collects the exported series for Gather and WriteTextfile.
	registry *promclient.Registry

	// ReleasesTotal counts configurations by architecture and status.
	ReleasesTotal metric.Int64Counter
	// UploadsTotal counts upload attempts by outcome.
	UploadsTotal metric.Int64Counter
	// UploadedBytesTotal sums the sizes of successful uploads.
	UploadedBytesTotal metric.Int64Counter
	// StageDuration measures each deploy stage in seconds.
	StageDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on a meter provider exporting to a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("graphite-deploy")

	m := &Metrics{
		provider: provider,
		registry: registry,
	}

	m.ReleasesTotal, err = meter.Int64Counter(
		"deploy_releases_total",
		metric.WithDescription("Releases processed, by architecture and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.UploadsTotal, err = meter.Int64Counter(
		"deploy_uploads_total",
		metric.WithDescription("Objects sent to the release bucket, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.UploadedBytesTotal, err = meter.Int64Counter(
		"deploy_uploaded_bytes_total",
		metric.WithDescription("Bytes successfully uploaded"),
	)
	if err != nil {
		return nil, err
	}

	m.StageDuration, err = meter.Float64Histogram(
		"deploy_stage_duration_seconds",
		metric.WithDescription("Duration of each packaging stage in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRelease counts one processed release.
func (m *Metrics) RecordRelease(ctx context.Context, arch, status string) {
	m.ReleasesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("arch", arch),
		attribute.String("status", status),
	))
}

// RecordUpload counts one upload attempt and, on success, its size.
func (m *Metrics) RecordUpload(ctx context.Context, size int64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}

	m.UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))

	if err == nil {
		m.UploadedBytesTotal.Add(ctx, size)
	}
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(ctx context.Context, stage string, start time.Time) {
	m.StageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// WriteTextfile writes the current values in the Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := promclient.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}

// Gather returns the current metric families, mostly for tests.
func (m *Metrics) Gather() ([]string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	return names, nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil && !errors.Is(err, sdkmetric.ErrReaderShutdown) {
		return err
	}

	return nil
}

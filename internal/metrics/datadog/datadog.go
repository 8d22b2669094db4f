// Package datadog implements a Datadog backend for the metrics package.
//
// It forwards the pipeline's counters and duration observations to a
// DogStatsD agent, translating metric labels into Datadog tags. The
// Prometheus-style names the metrics package emits are mapped to dotted
// Datadog names; anything else is dropped.
package datadog

import (
	"fmt"

	"ventes/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix added to all metric names, e.g. "ventes.".
	Namespace string

	// GlobalTags are tags applied to all metrics emitted by this backend,
	// e.g. []string{"env:prod","service:ventes"}.
	GlobalTags []string
}

// statsClient is the slice of *statsd.Client the backend uses.
type statsClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend is a Datadog implementation of metrics.Backend.
//
// The same Backend instance is intended to be installed as the global
// metrics backend via metrics.SetBackend.
type Backend struct {
	client statsClient
}

// NewBackend constructs a Datadog metrics backend from the given configuration.
//
// The Addr field is required; when empty, NewBackend returns an error.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}

	return &Backend{client: c}, nil
}

// dogName maps the metrics package's counter names to Datadog conventions.
// Unknown names yield "" and the observation is dropped.
func dogName(name string) string {
	switch name {
	case "ventes_step_total":
		return "ventes.steps"
	case "ventes_records_total":
		return "ventes.records"
	case "ventes_partitions_total":
		return "ventes.partitions"
	case "ventes_step_duration_seconds":
		return "ventes.step.duration"
	}
	return ""
}

// IncCounter implements metrics.Backend.IncCounter using a Datadog Count metric.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	dn := dogName(name)
	if dn == "" {
		return
	}
	// DogStatsD Count expects an int64; the pipeline only emits whole deltas.
	b.client.Count(dn, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram implements metrics.Backend.ObserveHistogram using a
// Datadog Histogram metric. Only step durations are observed.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	dn := dogName(name)
	if dn == "" {
		return
	}
	b.client.Histogram(dn, value, labelsToTags(labels), 1)
}

// Flush implements metrics.Backend.Flush.
//
// For the Datadog statsd client, Close() is the closest equivalent and is
// typically used at process shutdown to flush any buffered data.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// labelsToTags converts a map of labels into Datadog tag strings "key:value".
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, fmt.Sprintf("%s:%s", k, v))
	}
	return out
}

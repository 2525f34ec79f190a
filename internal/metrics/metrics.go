// Package metrics exports rename transaction telemetry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/cleanmedia/internal/media"
)

// Observer captures telemetry for rename transactions.
type Observer interface {
	RecordRename(summary media.Summary, duration time.Duration)
	RecordDiscovery(pending int, duration time.Duration, err error)
}

// Nop returns an Observer that records nothing.
func Nop() Observer { return nopObserver{} }

type nopObserver struct{}

func (nopObserver) RecordRename(media.Summary, time.Duration) {}

func (nopObserver) RecordDiscovery(int, time.Duration, error) {}

// PrometheusObserver exports rename metrics to Prometheus.
type PrometheusObserver struct {
	transactions    *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	files           *prometheus.CounterVec
	pending         prometheus.Gauge
	discoveryErrors prometheus.Counter
}

// NewPrometheusObserver registers the rename metrics.
// Collectors that are already registered are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "cleanmedia"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rename_transactions_total",
			Help:      "Attachment rename transactions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rename_duration_seconds",
			Help:      "Latency of attachment rename transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renamed_files_total",
			Help:      "Size variant and backup files by rename status.",
		}, []string{"kind", "status"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_attachments",
			Help:      "Attachments whose filename needs cleaning, as of the last discovery.",
		}),
		discoveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_errors_total",
			Help:      "Failed discovery queries.",
		}),
	}

	var err error
	if o.transactions, err = register(reg, o.transactions); err != nil {
		return nil, err
	}
	if o.duration, err = register(reg, o.duration); err != nil {
		return nil, err
	}
	if o.files, err = register(reg, o.files); err != nil {
		return nil, err
	}
	if o.pending, err = register(reg, o.pending); err != nil {
		return nil, err
	}
	if o.discoveryErrors, err = register(reg, o.discoveryErrors); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register rename metric: %w", err)
	}
	return c, nil
}

// RecordRename counts the transaction and its per-file results.
func (o *PrometheusObserver) RecordRename(summary media.Summary, duration time.Duration) {
	if o == nil {
		return
	}
	outcome := string(summary.Outcome)
	o.transactions.WithLabelValues(outcome).Inc()
	o.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	for _, r := range summary.Variants {
		o.files.WithLabelValues("variant", string(r.Status)).Inc()
	}
	for _, r := range summary.Backups {
		o.files.WithLabelValues("backup", string(r.Status)).Inc()
	}
}

// RecordDiscovery sets the pending gauge or counts the failure.
func (o *PrometheusObserver) RecordDiscovery(pending int, _ time.Duration, err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.discoveryErrors.Inc()
		return
	}
	o.pending.Set(float64(pending))
}

var _ Observer = (*PrometheusObserver)(nil)

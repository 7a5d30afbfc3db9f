package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics counts what a single build run did against the remote services
type RunMetrics struct {
	registry *prometheus.Registry

	imagesEnumerated prometheus.Counter
	formsCreated     prometheus.Counter
	itemsCreated     *prometheus.CounterVec
	attachRetries    prometheus.Counter
	attachFailures   prometheus.Counter
	callDuration     *prometheus.HistogramVec
}

func NewRunMetrics(runID string) *RunMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID}

	m := &RunMetrics{
		registry: registry,
		imagesEnumerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "formbuilder",
			Name:        "images_enumerated_total",
			Help:        "Image files found in the source folder.",
			ConstLabels: labels,
		}),
		formsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "formbuilder",
			Name:        "forms_created_total",
			Help:        "Form documents created.",
			ConstLabels: labels,
		}),
		itemsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "formbuilder",
			Name:        "items_created_total",
			Help:        "Form items created by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		attachRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "formbuilder",
			Name:        "image_attach_retries_total",
			Help:        "Image attachments retried after a failed first attempt.",
			ConstLabels: labels,
		}),
		attachFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "formbuilder",
			Name:        "image_attach_failures_total",
			Help:        "Image attachments that failed after all attempts.",
			ConstLabels: labels,
		}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "formbuilder",
			Name:        "remote_call_duration_seconds",
			Help:        "Latency of remote storage and form calls by operation.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			ConstLabels: labels,
		}, []string{"operation", "status"}),
	}

	registry.MustRegister(
		m.imagesEnumerated,
		m.formsCreated,
		m.itemsCreated,
		m.attachRetries,
		m.attachFailures,
		m.callDuration,
	)
	return m
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) ImagesEnumerated(n int) {
	if m == nil {
		return
	}
	m.imagesEnumerated.Add(float64(n))
}

func (m *RunMetrics) FormCreated() {
	if m == nil {
		return
	}
	m.formsCreated.Inc()
}

func (m *RunMetrics) ItemCreated(kind string) {
	if m == nil {
		return
	}
	m.itemsCreated.WithLabelValues(kind).Inc()
}

func (m *RunMetrics) AttachRetried() {
	if m == nil {
		return
	}
	m.attachRetries.Inc()
}

func (m *RunMetrics) AttachFailed() {
	if m == nil {
		return
	}
	m.attachFailures.Inc()
}

// ObserveCall records the latency of one remote call
func (m *RunMetrics) ObserveCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.callDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// WriteTextfile dumps the registry in the node exporter textfile format
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

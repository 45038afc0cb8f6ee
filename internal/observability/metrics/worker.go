package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	ingestInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
	taskRetries    *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pbx",
			Subsystem: "worker",
			Name:      "ingest_total",
			Help:      "Total ingest tasks handled by outcome.",
		},
		[]string{"service", "outcome"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pbx",
			Subsystem: "worker",
			Name:      "ingest_duration_seconds",
			Help:      "Ingest task duration in seconds by outcome.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "outcome"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pbx",
			Subsystem: "worker",
			Name:      "ingest_in_flight",
			Help:      "Number of ingest tasks currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pbx",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between task enqueue and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900},
		},
		[]string{"service"},
	)
	taskRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pbx",
			Subsystem: "worker",
			Name:      "task_redeliveries_total",
			Help:      "Total tasks received on their second or later delivery.",
		},
		[]string{"service"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, queueLag, taskRetries)

	return &WorkerMetrics{
		registry:       registry,
		ingestTotal:    ingestTotal,
		ingestDuration: ingestDuration,
		ingestInFlight: ingestInFlight,
		queueLag:       queueLag,
		taskRetries:    taskRetries,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.ingestInFlight.Inc()
}

// FinishTask records the outcome of one ingest task. An error here means the
// task will be redelivered, not that the document ended up errored.
func (m *WorkerMetrics) FinishTask(service string, duration time.Duration, err error) {
	m.ingestInFlight.Dec()

	outcome := "handled"
	if err != nil {
		outcome = "requeued"
	}

	m.ingestTotal.WithLabelValues(service, outcome).Inc()
	m.ingestDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveRedelivery(service string, attempt int) {
	if attempt <= 1 {
		return
	}
	m.taskRetries.WithLabelValues(service).Inc()
}

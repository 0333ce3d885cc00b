// Package metrics exposes the prometheus collectors shared by the upload core, the poller,
// the ingestor and the REST surface. A nil *Collectors is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "iot_anchor"

type Collectors struct {
	uploadsTotal       *prometheus.CounterVec
	uploadDuration     *prometheus.HistogramVec
	payloadBytes       *prometheus.HistogramVec
	attemptsTotal      *prometheus.CounterVec
	confirmationsTotal *prometheus.CounterVec
	sweepsTotal        *prometheus.CounterVec
	ingestedTotal      *prometheus.CounterVec
	requestCounter     *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New registers every collector on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "total",
				Help:      "Upload calls by chain and outcome",
			},
			[]string{"chain", "outcome"},
		),
		uploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "submit_duration_seconds",
				Help:      "Ledger submission latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"chain"},
		),
		payloadBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "payload_bytes",
				Help:      "Serialized payload size",
				Buckets:   []float64{100, 250, 500, 1000, 4096, 16384, 32768},
			},
			[]string{"chain"},
		),
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "failed_attempts_total",
				Help:      "Recorded failed attempts by chain and error kind",
			},
			[]string{"chain", "kind"},
		),
		confirmationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "confirm",
				Name:      "total",
				Help:      "Confirmation checks by chain and result",
			},
			[]string{"chain", "result"},
		),
		sweepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poller",
				Name:      "sweeps_total",
				Help:      "Poller sweeps by result",
			},
			[]string{"result"},
		),
		ingestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "messages_total",
				Help:      "MQTT messages by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Collectors) ObserveUpload(chain string, outcome string, elapsed time.Duration, payloadSize int) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(chain, outcome).Inc()
	if elapsed > 0 {
		m.uploadDuration.WithLabelValues(chain).Observe(elapsed.Seconds())
	}
	if payloadSize > 0 {
		m.payloadBytes.WithLabelValues(chain).Observe(float64(payloadSize))
	}
}

func (m *Collectors) ObserveAttempt(chain string, kind string) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(chain, kind).Inc()
}

func (m *Collectors) ObserveConfirmation(chain string, result string) {
	if m == nil {
		return
	}
	m.confirmationsTotal.WithLabelValues(chain, result).Inc()
}

func (m *Collectors) ObserveSweep(result string) {
	if m == nil {
		return
	}
	m.sweepsTotal.WithLabelValues(result).Inc()
}

func (m *Collectors) ObserveIngest(kind string, outcome string) {
	if m == nil {
		return
	}
	m.ingestedTotal.WithLabelValues(kind, outcome).Inc()
}

// Middleware records request count and latency, labelled by the route template rather than the raw path.
func (m *Collectors) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Package metrics exposes sensor readings and read outcomes to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// Read outcome label values.
const (
	ResultOK               = "ok"
	ResultConnectionFailed = "connection_failed"
	ResultChecksumMismatch = "checksum_mismatch"
)

// Metrics holds the collectors for one sensor.
type Metrics struct {
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	up          prometheus.Gauge
	reads       *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates the collectors for the sensor called name and registers them
// with reg.
func New(reg prometheus.Registerer, name string) *Metrics {
	labels := prometheus.Labels{"sensor": name}
	m := &Metrics{
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dht11_temperature_celsius",
			Help:        "Last good temperature reading (units: degrees Celsius)",
			ConstLabels: labels,
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dht11_humidity_percent",
			Help:        "Last good relative humidity reading (units: %)",
			ConstLabels: labels,
		}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dht11_sensor_up",
			Help:        "1 unless the sensor is considered lost",
			ConstLabels: labels,
		}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dht11_reads_total",
			Help:        "Read transactions by result",
			ConstLabels: labels,
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "dht11_read_duration_seconds",
			Help:        "Wall time of one read transaction including handshake retries",
			ConstLabels: labels,
			Buckets:     []float64{0.025, 0.05, 0.1, 0.2, 0.5, 1},
		}),
	}
	reg.MustRegister(m.temperature, m.humidity, m.up, m.reads, m.duration)

	// Pre-create result series so they export as 0 before the first read.
	for _, r := range []string{ResultOK, ResultConnectionFailed, ResultChecksumMismatch} {
		m.reads.WithLabelValues(r)
	}
	return m
}

// ResultFor maps a failure kind to its label value.
func ResultFor(f logic.Failure) string {
	switch f {
	case logic.FailureNone:
		return ResultOK
	case logic.FailureChecksumMismatch:
		return ResultChecksumMismatch
	default:
		return ResultConnectionFailed
	}
}

// ObserveRead records one read transaction. Gauges only move on success so
// they always hold the last good reading.
func (m *Metrics) ObserveRead(in logic.Input, took time.Duration) {
	m.reads.WithLabelValues(ResultFor(in.Failure)).Inc()
	m.duration.Observe(took.Seconds())
	if in.Failure == logic.FailureNone {
		m.temperature.Set(in.Temperature)
		m.humidity.Set(in.Humidity)
	}
}

// SetUp records whether the sensor is answering.
func (m *Metrics) SetUp(up bool) {
	if up {
		m.up.Set(1)
	} else {
		m.up.Set(0)
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paradox"

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics holds the protocol counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	FramesTotal     *prometheus.CounterVec // labels: kind, result=ok|malformed|unknown
	RequestsTotal   *prometheus.CounterVec // labels: kind
	TimeoutsTotal   prometheus.Counter
	RetriesTotal    prometheus.Counter
	CollisionsTotal *prometheus.CounterVec // labels: class
	HandshakesTotal *prometheus.CounterVec // labels: result
	LabelsGauge     *prometheus.GaugeVec   // labels: class
	Connected       prometheus.Gauge
}

// New registers and returns the protocol metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Inbound frames by decoded kind and result.",
		}, []string{"kind", "result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests written to the panel by kind.",
		}, []string{"kind"}),
		TimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_timeouts_total",
			Help:      "Requests that got no reply after every retry.",
		}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_retries_total",
			Help:      "Requests resent after a timed out attempt.",
		}),
		CollisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_collisions_total",
			Help:      "Out of turn replies seen while reading labels.",
		}, []string{"class"}),
		HandshakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Authentication attempts by result.",
		}, []string{"result"}),
		LabelsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "labels",
			Help:      "Labels currently known per entity class.",
		}, []string{"class"}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a panel session is open.",
		}),
	}
	reg.MustRegister(m.FramesTotal, m.RequestsTotal, m.TimeoutsTotal, m.RetriesTotal,
		m.CollisionsTotal, m.HandshakesTotal, m.LabelsGauge, m.Connected)
	return m
}

func (m *Metrics) Frame(kind, result string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Request(kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Timeout() {
	if m == nil {
		return
	}
	m.TimeoutsTotal.Inc()
}

func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) Collision(class string) {
	if m == nil {
		return
	}
	m.CollisionsTotal.WithLabelValues(class).Inc()
}

func (m *Metrics) Handshake(result string) {
	if m == nil {
		return
	}
	m.HandshakesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Labels(class string, n int) {
	if m == nil {
		return
	}
	m.LabelsGauge.WithLabelValues(class).Set(float64(n))
}

func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}

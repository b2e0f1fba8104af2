// Package metrics records autofill activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attach results.
const (
	AttachOK     = "ok"
	AttachFailed = "failed"
)

// Command results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder is consumed by the fill engine, the coordinator and the API client.
type Recorder interface {
	RecordFieldFilled(field string)
	RecordFileAttach(result string)
	RecordCommand(command, result string)
	RecordAPIRequest(endpoint string, duration time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	fieldsFilled *prometheus.CounterVec
	fileAttach   *prometheus.CounterVec
	commands     *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fieldsFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autofill_fields_filled_total",
			Help: "Form fields filled, by semantic field.",
		}, []string{"field"}),
		fileAttach: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autofill_file_attach_total",
			Help: "Resume file attachments, by result.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autofill_commands_total",
			Help: "Coordinator commands handled, by command and result.",
		}, []string{"command", "result"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autofill_api_request_duration_seconds",
			Help:    "Latency of resume service requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	reg.MustRegister(c.fieldsFilled, c.fileAttach, c.commands, c.apiLatency)
	return c
}

func (c *Collector) RecordFieldFilled(field string) {
	c.fieldsFilled.WithLabelValues(field).Inc()
}

func (c *Collector) RecordFileAttach(result string) {
	c.fileAttach.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCommand(command, result string) {
	c.commands.WithLabelValues(command, result).Inc()
}

func (c *Collector) RecordAPIRequest(endpoint string, duration time.Duration) {
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFieldFilled(string)               {}
func (Nop) RecordFileAttach(string)                {}
func (Nop) RecordCommand(string, string)           {}
func (Nop) RecordAPIRequest(string, time.Duration) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler serves the /metrics endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

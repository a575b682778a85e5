package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	requestErrorsTotal    *prometheus.CounterVec
	formSubmissionsTotal  *prometheus.CounterVec
	reportEventsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_request_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		formSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_form_submissions_total",
			Help: "Form submissions grouped by form type and outcome.",
		}, []string{"form_type", "outcome"})

		reportEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_report_events_total",
			Help: "Moderation report events grouped by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(requestsTotal, requestLatencySeconds, requestErrorsTotal, formSubmissionsTotal, reportEventsTotal)
	})
}

// Requests exposes the counter for served requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the request latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}

// FormSubmissions exposes the form submission outcome counter.
func FormSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return formSubmissionsTotal
}

// ReportEvents exposes the moderation event counter.
func ReportEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return reportEventsTotal
}

// Package metrics exposes Prometheus counters for document creation, PDF
// rendering and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "invoice_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	documentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "documents_created_total",
			Help: "Total invoices and quotes created by document type",
		},
		[]string{"type"},
	)
	documentErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "document_errors_total",
			Help: "Total failed document operations by operation",
		},
		[]string{"op"},
	)
	pdfRenderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "pdf_render_seconds",
			Help:    "PDF rendering latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "http_requests_total",
			Help: "Total HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
)

// Init registers the collectors on the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(documentsCreated, documentErrors, pdfRenderLatency, httpRequests)
	})
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// DocumentCreated counts one created document of the given type.
func DocumentCreated(docType string) {
	documentsCreated.WithLabelValues(docType).Inc()
}

// DocumentError counts one failed operation (create, update, delete).
func DocumentError(op string) {
	documentErrors.WithLabelValues(op).Inc()
}

// ObservePDFRender records a PDF rendering started at start.
func ObservePDFRender(start time.Time, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	pdfRenderLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// HTTPRequest counts one served request.
func HTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

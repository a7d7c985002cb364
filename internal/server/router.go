package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-api/internal/handlers"
	"github.com/diewo77/invoice-api/internal/httpx"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/metrics"
)

const (
	apiName    = "Invoice Generator API"
	apiVersion = "1.0.0"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	DB            *gorm.DB
	Invoices      handlers.InvoiceStore
	Renderer      handlers.PDFRenderer
	WebhookSecret string
	Logger        *zap.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	log := logger.OrNop(d.Logger)
	mux := http.NewServeMux()

	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": apiName, "version": apiVersion})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil || d.DB.WithContext(r.Context()).Exec("SELECT 1").Error != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
	//revive:enable:unused-parameter

	ih := handlers.NewInvoiceHandler(d.Invoices, d.Renderer, log)
	mux.HandleFunc("GET /api/invoices", ih.List)
	mux.HandleFunc("POST /api/invoices", ih.Create)
	mux.HandleFunc("GET /api/invoices/export.xlsx", ih.Export)
	mux.HandleFunc("GET /api/invoices/revenue", ih.Revenue)
	mux.HandleFunc("GET /api/invoices/{id}", ih.Get)
	mux.HandleFunc("PUT /api/invoices/{id}", ih.Update)
	mux.HandleFunc("DELETE /api/invoices/{id}", ih.Delete)
	mux.HandleFunc("GET /api/invoices/{id}/pdf", ih.PDF)

	wh := handlers.NewWebhookHandler(d.Invoices, d.WebhookSecret, log)
	mux.HandleFunc("POST /api/webhook/n8n", wh.N8N)

	return withRecover(log, withLogging(log, mux))
}

// statusRecorder keeps the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		metrics.HTTPRequest(r.Method, rec.status)
		log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/diewo77/invoice-api/internal/export"
	"github.com/diewo77/invoice-api/internal/httpx"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/validation"
)

// InvoiceStore is the persistence the invoice endpoints need.
type InvoiceStore interface {
	Create(ctx context.Context, draft models.Draft) (*models.Invoice, error)
	Get(ctx context.Context, id uint) (*models.Invoice, error)
	List(ctx context.Context, limit int) ([]models.Invoice, error)
	Update(ctx context.Context, id uint, draft models.Draft) (*models.Invoice, error)
	Delete(ctx context.Context, id uint) error
	Revenue(ctx context.Context) (float64, error)
}

// PDFRenderer turns a stored document into PDF bytes.
type PDFRenderer interface {
	Render(inv *models.Invoice, lang string) ([]byte, error)
}

type InvoiceHandler struct {
	store    InvoiceStore
	renderer PDFRenderer
	log      *zap.Logger
}

func NewInvoiceHandler(store InvoiceStore, renderer PDFRenderer, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{store: store, renderer: renderer, log: logger.OrNop(log)}
}

// List: GET /api/invoices?limit=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invs, err := h.store.List(r.Context(), parseLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invs)
}

// Create: POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	inv, err := h.store.Create(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Get: GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: PUT /api/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	inv, err := h.store.Update(r.Context(), id, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /api/invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted"})
}

// Revenue: GET /api/invoices/revenue
func (h *InvoiceHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Revenue(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]float64{"revenue": total})
}

// PDF: GET /api/invoices/{id}/pdf?lang=
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	start := time.Now()
	data, err := h.renderer.Render(inv, lang)
	metrics.ObservePDFRender(start, err)
	if err != nil {
		h.log.Error("pdf generation failed", zap.Uint("id", id), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.InvoiceNumber+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Export: GET /api/invoices/export.xlsx?limit=
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	invs, err := h.store.List(r.Context(), parseLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := export.InvoicesXLSX(invs)
	if err != nil {
		h.log.Error("xlsx export failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *InvoiceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logError(h.log, r, err)
	httpx.Error(w, err)
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	var draft models.Draft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return draft, false
	}
	if v := validation.Struct(draft); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return draft, false
	}
	return draft, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}

// parseLimit reads ?limit=. Absent or unusable values mean the store default.
func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

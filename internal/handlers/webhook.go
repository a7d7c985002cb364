package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/httpx"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/validation"
)

const webhookSecretHeader = "X-Webhook-Secret"

// Webhook actions.
const (
	ActionCreateInvoice = "create_invoice"
	ActionCreateQuote   = "create_quote"
)

// DocumentCreator creates documents from drafts.
type DocumentCreator interface {
	Create(ctx context.Context, draft models.Draft) (*models.Invoice, error)
}

// WebhookHandler receives automation calls (n8n workflows).
type WebhookHandler struct {
	creator DocumentCreator
	secret  string
	log     *zap.Logger
}

// NewWebhookHandler returns the handler. An empty secret accepts every caller.
func NewWebhookHandler(creator DocumentCreator, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{creator: creator, secret: secret, log: logger.OrNop(log)}
}

type webhookRequest struct {
	Action string       `json:"action"`
	Data   models.Draft `json:"data"`
}

// N8N: POST /api/webhook/n8n
func (h *WebhookHandler) N8N(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		logError(h.log, r, ierr.Unauthorized("webhook secret mismatch"))
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req webhookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	draft := req.Data
	switch req.Action {
	case ActionCreateInvoice:
		draft.Type = models.DocumentTypeInvoice
	case ActionCreateQuote:
		draft.Type = models.DocumentTypeQuote
	default:
		// blank or missing actions included
		httpx.JSONError(w, http.StatusBadRequest, "Unknown action", nil)
		return
	}
	if v := validation.Struct(draft); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	inv, err := h.creator.Create(r.Context(), draft)
	if err != nil {
		logError(h.log, r, err)
		httpx.Error(w, err)
		return
	}
	h.log.Info("webhook document created", zap.String("action", req.Action), zap.String("number", inv.InvoiceNumber))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "invoice": inv})
}

func (h *WebhookHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	got := r.Header.Get(webhookSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

// logError logs server failures at error level and client mistakes at debug.
func logError(log *zap.Logger, r *http.Request, err error) {
	fields := []zap.Field{zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err)}
	if ierr.HTTPStatus(err) >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Debug("request rejected", fields...)
}

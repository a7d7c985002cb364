package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDocumentCreated(t *testing.T) {
	before := testutil.ToFloat64(documentsCreated.WithLabelValues("quote"))
	DocumentCreated("quote")
	DocumentCreated("quote")
	assert.Equal(t, before+2, testutil.ToFloat64(documentsCreated.WithLabelValues("quote")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Init()
	Init()
	DocumentCreated("invoice")
	DocumentError("create")
	HTTPRequest(http.MethodPost, http.StatusCreated)
	ObservePDFRender(time.Now(), nil)
	ObservePDFRender(time.Now(), errors.New("boom"))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"invoice_documents_created_total",
		"invoice_document_errors_total",
		"invoice_http_requests_total",
		"invoice_pdf_render_seconds",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

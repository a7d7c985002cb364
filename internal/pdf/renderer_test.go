package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoice-api/internal/models"
)

func sampleInvoice(n int) *models.Invoice {
	due := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		InvoiceNumber: "FA2024-0001",
		Type:          models.DocumentTypeInvoice,
		Date:          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		Status:        models.InvoiceStatusSent,
		Client: models.Client{
			Name:    "Société Générale d'Études",
			Email:   "compta@example.fr",
			Address: "12 rue de la Paix\n75002 Paris",
			Phone:   "+33 1 23 45 67 89",
			SIRET:   "12345678900012",
		},
		Notes: "Paiement à 30 jours.",
		Terms: "Pénalités de retard : 3 fois le taux d'intérêt légal.",
	}
	for i := 0; i < n; i++ {
		inv.LineItems = append(inv.LineItems, models.LineItem{
			Position:    i,
			Description: fmt.Sprintf("Prestation de développement n°%d, réalisée sur site avec une description suffisamment longue pour être coupée", i+1),
			Quantity:    2,
			UnitPrice:   100,
			VATRate:     20,
			Total:       200,
		})
	}
	inv.Subtotal = 200 * float64(n)
	inv.TotalVAT = 40 * float64(n)
	inv.Total = inv.Subtotal + inv.TotalVAT
	return inv
}

func TestRenderProducesPDF(t *testing.T) {
	r := &Renderer{Now: func() time.Time { return time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC) }}
	for _, lang := range []string{"", "fr", "en", "en-US,en;q=0.9"} {
		t.Run("lang="+lang, func(t *testing.T) {
			out, err := r.Render(sampleInvoice(3), lang)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		})
	}
}

func TestRenderQuoteWithoutOptionalFields(t *testing.T) {
	inv := &models.Invoice{
		InvoiceNumber: "DE2024-0002",
		Type:          models.DocumentTypeQuote,
		Date:          time.Now(),
		Client:        models.Client{Name: "ACME"},
	}
	out, err := NewRenderer("en").Render(inv, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderPaginatesLongTables(t *testing.T) {
	r := NewRenderer("fr")
	short, err := r.Render(sampleInvoice(1), "")
	require.NoError(t, err)
	long, err := r.Render(sampleInvoice(80), "")
	require.NoError(t, err)
	assert.Greater(t, len(long), len(short))
	assert.True(t, bytes.Contains(long, []byte("/Count ")))
}

func TestRenderNilInvoice(t *testing.T) {
	_, err := NewRenderer("fr").Render(nil, "")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1234.50 €", formatMoney(1234.5))
	assert.Equal(t, "5.5", formatQuantity(5.5))
	assert.Equal(t, "3", formatQuantity(3))
}

func TestStatusStampOnPaidInvoices(t *testing.T) {
	inv := sampleInvoice(1)
	assert.Empty(t, statusStamp(inv))

	inv.Status = models.InvoiceStatusPaid
	assert.Equal(t, "status_paid", statusStamp(inv))
	out, err := NewRenderer("fr").Render(inv, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	inv.Type = models.DocumentTypeQuote
	assert.Empty(t, statusStamp(inv))
}

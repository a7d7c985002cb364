// Package billing holds the pure invoice logic: totals and document numbers.
// Nothing here performs I/O; every function is safe for concurrent use.
package billing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/diewo77/invoice-api/internal/errors"
	"github.com/diewo77/invoice-api/internal/models"
)

// Calculator turns drafts into invoices with computed totals.
// Now supplies the date of drafts that carry none.
type Calculator struct {
	Now func() time.Time
}

// NewCalculator returns a Calculator using the wall clock.
func NewCalculator() *Calculator {
	return &Calculator{Now: time.Now}
}

// ComputeTotals computes line totals, subtotal, VAT and grand total for a
// draft using the wall clock for a missing date.
func ComputeTotals(draft models.Draft) (models.Invoice, error) {
	return NewCalculator().ComputeTotals(draft)
}

// ComputeTotals returns a new Invoice derived from draft. Line totals keep
// full precision; the three aggregates are rounded to cents independently
// from their unrounded accumulators. The draft is not modified.
func (c *Calculator) ComputeTotals(draft models.Draft) (models.Invoice, error) {
	if draft.LineItems == nil {
		return models.Invoice{}, ierr.InvalidInput("lineItems is required")
	}

	docType := draft.Type
	if docType == "" {
		docType = models.DocumentTypeInvoice
	}
	if !docType.Valid() {
		return models.Invoice{}, ierr.InvalidInput("unknown document type %q", draft.Type)
	}

	status := draft.Status
	if status == "" {
		status = models.InvoiceStatusDraft
	}
	if !status.Valid() {
		return models.Invoice{}, ierr.InvalidInput("unknown status %q", draft.Status)
	}

	var subtotal, totalVAT float64
	items := make([]models.LineItem, 0, len(draft.LineItems))
	for i, li := range draft.LineItems {
		if li.Quantity == nil {
			return models.Invoice{}, ierr.InvalidInput("lineItems[%d].quantity is required", i)
		}
		if li.UnitPrice == nil {
			return models.Invoice{}, ierr.InvalidInput("lineItems[%d].unitPrice is required", i)
		}
		quantity, unitPrice, rate := *li.Quantity, *li.UnitPrice, li.Rate()
		if err := checkNumbers(i, quantity, unitPrice, rate); err != nil {
			return models.Invoice{}, err
		}
		if quantity < 0 {
			return models.Invoice{}, ierr.InvalidInput("lineItems[%d].quantity must not be negative", i)
		}

		lineTotal := quantity * unitPrice
		subtotal += lineTotal
		totalVAT += lineTotal * rate / 100

		items = append(items, models.LineItem{
			Position:    i,
			Description: li.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			VATRate:     rate,
			Total:       lineTotal,
		})
	}

	if !finite(subtotal) || !finite(totalVAT) || !finite(subtotal+totalVAT) {
		return models.Invoice{}, ierr.Computation("totals overflow")
	}

	date := c.now()
	if draft.Date != nil && !draft.Date.IsZero() {
		date = draft.Date.Time
	}

	return models.Invoice{
		Type:      docType,
		Date:      date,
		DueDate:   draft.DueDate.TimeOrNil(),
		Status:    status,
		Client:    draft.Client,
		LineItems: items,
		Subtotal:  Round2(subtotal),
		TotalVAT:  Round2(totalVAT),
		Total:     Round2(subtotal + totalVAT),
		Notes:     draft.Notes,
		Terms:     draft.Terms,
	}, nil
}

func (c *Calculator) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func checkNumbers(i int, quantity, unitPrice, rate float64) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"quantity", quantity}, {"unitPrice", unitPrice}, {"vatRate", rate}} {
		if !finite(f.v) {
			return ierr.Computation("lineItems[%d].%s is not a finite number", i, f.name)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds v to cents, half away from zero, on the shortest decimal
// representation of v (so 100.005 rounds to 100.01).
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

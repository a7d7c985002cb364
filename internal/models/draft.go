package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultVATRate applies to line items that do not carry a rate.
const DefaultVATRate = 20.0

// Draft is an invoice or quote payload before totals and numbering.
// A nil LineItems means the collection was absent from the payload.
type Draft struct {
	Type      DocumentType    `json:"type,omitempty" validate:"omitempty,oneof=invoice quote"`
	Date      *Date           `json:"date,omitempty"`
	DueDate   *Date           `json:"dueDate,omitempty"`
	Status    InvoiceStatus   `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid cancelled"`
	Client    Client          `json:"client"`
	LineItems []DraftLineItem `json:"lineItems" validate:"required,dive"`
	Notes     string          `json:"notes,omitempty"`
	Terms     string          `json:"terms,omitempty"`
}

// DraftLineItem is a line as supplied by a caller. A total sent by the
// caller is not part of the shape: it is always recomputed.
// Quantity and UnitPrice are nil when absent or null in the payload.
type DraftLineItem struct {
	Description string   `json:"description" validate:"required"`
	Quantity    *float64 `json:"quantity" validate:"required,gte=0"`
	UnitPrice   *float64 `json:"unitPrice" validate:"required"`
	VATRate     *float64 `json:"vatRate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Rate returns the line's VAT rate, DefaultVATRate when unset.
func (li DraftLineItem) Rate() float64 {
	if li.VATRate == nil {
		return DefaultVATRate
	}
	return *li.VATRate
}

// Date is a calendar date or timestamp as found in JSON payloads:
// "2006-01-02" and RFC 3339 are both accepted.
type Date struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// NewDate wraps t.
func NewDate(t time.Time) *Date { return &Date{Time: t} }

// TimeOrNil returns a pointer to the wrapped time, nil for a nil or zero Date.
func (d *Date) TimeOrNil() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

package models

import (
	"time"
)

// DocumentType distinguishes invoices from quotes. Both share one table and
// one numbering path; only the number prefix and the rendered title differ.
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeQuote   DocumentType = "quote"
)

// Valid reports whether t is one of the recognised document types.
func (t DocumentType) Valid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeQuote
}

// InvoiceStatus represents the status of an invoice or quote.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Client is the billed party. It is stored inline on the invoice
// (client_* columns) rather than as a separate record.
type Client struct {
	Name    string `gorm:"size:255" json:"name" validate:"required"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Address string `gorm:"type:text" json:"address,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	SIRET   string `gorm:"size:14" json:"siret,omitempty"`
}

// Invoice is a persisted invoice or quote with its computed totals.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Assigned once at creation, never rewritten.
	InvoiceNumber string       `gorm:"size:50;uniqueIndex;not null" json:"invoiceNumber"`
	Type          DocumentType `gorm:"size:10;not null;index" json:"type"`

	Date    time.Time     `gorm:"not null" json:"date"`
	DueDate *time.Time    `json:"dueDate,omitempty"`
	Status  InvoiceStatus `gorm:"size:20;not null" json:"status"`

	Client Client `gorm:"embedded;embeddedPrefix:client_" json:"client"`

	LineItems []LineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lineItems"`

	Subtotal float64 `gorm:"not null" json:"subtotal"`
	TotalVAT float64 `gorm:"column:total_vat;not null" json:"totalVat"`
	Total    float64 `gorm:"not null" json:"total"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
	Terms string `gorm:"type:text" json:"terms,omitempty"`
}

// IsQuote returns true for quotes.
func (i *Invoice) IsQuote() bool {
	return i.Type == DocumentTypeQuote
}

// IsPaid returns true if the invoice has been paid.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// LineItem is one billable row. Total is always Quantity * UnitPrice as
// computed by the billing calculator; it is stored for the renderers.
type LineItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoiceId"`

	// Position keeps the display order of the draft.
	Position int `gorm:"not null" json:"position"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unitPrice"`
	VATRate     float64 `gorm:"not null" json:"vatRate"` // percent, e.g. 20
	Total       float64 `gorm:"not null" json:"total"`
}

// DocumentCounter holds the last sequence handed out for a numbering scope
// ("global", or a prefix+year such as "FA2024").
type DocumentCounter struct {
	Scope     string `gorm:"primaryKey;size:32"`
	Value     int64  `gorm:"not null"`
	UpdatedAt time.Time
}

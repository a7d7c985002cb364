// Package i18n holds the labels of rendered documents in French and English.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

const (
	LangFR = "fr"
	LangEN = "en"

	DefaultLang = LangFR
)

var messages = map[string]map[string]string{
	LangFR: {
		"required":         "Requis",
		"invoice_title":    "FACTURE",
		"quote_title":      "DEVIS",
		"number":           "N°",
		"date":             "Date",
		"due_date":         "Échéance",
		"client_info":      "Informations client",
		"email":            "Email",
		"phone":            "Tél.",
		"siret":            "SIRET",
		"description":      "Description",
		"quantity":         "Quantité",
		"unit_price":       "Prix unitaire",
		"vat_rate":         "TVA %",
		"line_total":       "Total HT",
		"subtotal":         "Total HT",
		"total_vat":        "TVA",
		"total":            "Total TTC",
		"notes":            "Notes",
		"terms":            "Conditions",
		"generated_on":     "Document généré automatiquement le %s",
		"status_draft":     "Brouillon",
		"status_sent":      "Envoyé",
		"status_paid":      "Payé",
		"status_cancelled": "Annulé",
	},
	LangEN: {
		"required":         "Required",
		"invoice_title":    "INVOICE",
		"quote_title":      "QUOTE",
		"number":           "No.",
		"date":             "Date",
		"due_date":         "Due date",
		"client_info":      "Client information",
		"email":            "Email",
		"phone":            "Phone",
		"siret":            "SIRET",
		"description":      "Description",
		"quantity":         "Quantity",
		"unit_price":       "Unit price",
		"vat_rate":         "VAT %",
		"line_total":       "Total excl. VAT",
		"subtotal":         "Total excl. VAT",
		"total_vat":        "VAT",
		"total":            "Total incl. VAT",
		"notes":            "Notes",
		"terms":            "Terms",
		"generated_on":     "Document generated automatically on %s",
		"status_draft":     "Draft",
		"status_sent":      "Sent",
		"status_paid":      "Paid",
		"status_cancelled": "Cancelled",
	},
}

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// DetectLanguage picks the first supported language of an Accept-Language
// header or a bare code. French is the default.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// T returns the label for code in lang, falling back to French and then to
// the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Tf formats the label for code with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// FormatDate renders t as a long date: "15 mars 2024" or "March 15, 2024".
func FormatDate(lang string, t time.Time) string {
	if lang == LangEN {
		return t.Format("January 2, 2006")
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frMonths[t.Month()-1], t.Year())
}

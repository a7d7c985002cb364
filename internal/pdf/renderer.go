// Package pdf renders invoices and quotes as A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/diewo77/invoice-api/internal/i18n"
	"github.com/diewo77/invoice-api/internal/models"
)

const (
	margin     = 20.0
	lineHeight = 6.0
	font       = "Arial"
)

// accent is the title and table header colour.
var accent = [3]int{37, 99, 235}

// column widths of the line table, summing to the printable width
var colWidths = [5]float64{70, 20, 30, 20, 30}

// Renderer produces PDF documents. The zero value renders in French with
// the wall clock for the footer date.
type Renderer struct {
	DefaultLang string
	Now         func() time.Time
}

// NewRenderer returns a renderer using lang when a request names none.
func NewRenderer(lang string) *Renderer {
	return &Renderer{DefaultLang: lang}
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Renderer) lang(lang string) string {
	if lang == "" {
		lang = r.DefaultLang
	}
	return i18n.DetectLanguage(lang)
}

// Render lays out inv and returns the PDF bytes.
func (r *Renderer) Render(inv *models.Invoice, lang string) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("render pdf: nil invoice")
	}
	lang = r.lang(lang)

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)
	doc.SetTitle(inv.InvoiceNumber, true)
	doc.SetCreator("invoice-api", true)

	p := &page{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), lang: lang}
	doc.AddPage()

	p.header(inv)
	p.client(inv.Client)
	p.lines(inv.LineItems)
	p.totals(inv)
	p.note("notes", inv.Notes)
	p.note("terms", inv.Terms)
	p.footer(r.now())

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type page struct {
	doc  *gofpdf.Fpdf
	tr   func(string) string
	lang string
}

func (p *page) t(code string) string { return p.tr(i18n.T(p.lang, code)) }

func (p *page) header(inv *models.Invoice) {
	d := p.doc
	title := "invoice_title"
	if inv.IsQuote() {
		title = "quote_title"
	}
	top := d.GetY()
	d.SetFont(font, "B", 24)
	d.SetTextColor(accent[0], accent[1], accent[2])
	d.CellFormat(85, 12, p.t(title), "", 0, "L", false, 0, "")

	d.SetTextColor(51, 51, 51)
	d.SetFont(font, "", 10)
	d.SetXY(margin+85, top)
	p.detail("number", inv.InvoiceNumber)
	p.detail("date", i18n.FormatDate(p.lang, inv.Date))
	if inv.DueDate != nil {
		p.detail("due_date", i18n.FormatDate(p.lang, *inv.DueDate))
	}
	if code := statusStamp(inv); code != "" {
		d.SetX(margin + 85)
		d.SetFont(font, "B", 11)
		d.SetTextColor(accent[0], accent[1], accent[2])
		d.CellFormat(85, lineHeight+1, p.t(code), "", 1, "R", false, 0, "")
		d.SetTextColor(51, 51, 51)
		d.SetFont(font, "", 10)
	}

	y := d.GetY() + 4
	if y < top+16 {
		y = top + 16
	}
	d.SetDrawColor(51, 51, 51)
	d.SetLineWidth(0.5)
	pageW, _ := d.GetPageSize()
	d.Line(margin, y, pageW-margin, y)
	d.SetLineWidth(0.2)
	d.SetY(y + 8)
}

// statusStamp is the label printed under the details of settled invoices.
func statusStamp(inv *models.Invoice) string {
	if !inv.IsQuote() && inv.IsPaid() {
		return "status_paid"
	}
	return ""
}

func (p *page) detail(code, value string) {
	p.doc.SetX(margin + 85)
	p.doc.CellFormat(85, lineHeight, p.t(code)+": "+p.tr(value), "", 1, "R", false, 0, "")
}

func (p *page) client(c models.Client) {
	d := p.doc
	d.SetFillColor(245, 245, 245)
	d.SetFont(font, "B", 12)
	d.SetTextColor(accent[0], accent[1], accent[2])
	d.CellFormat(0, 8, p.t("client_info"), "", 1, "L", true, 0, "")
	d.SetTextColor(51, 51, 51)
	d.SetFont(font, "B", 10)
	d.CellFormat(0, lineHeight, p.tr(c.Name), "", 1, "L", true, 0, "")
	d.SetFont(font, "", 10)
	if c.Address != "" {
		d.MultiCell(0, lineHeight, p.tr(c.Address), "", "L", true)
	}
	for _, f := range []struct{ code, value string }{
		{"email", c.Email},
		{"phone", c.Phone},
		{"siret", c.SIRET},
	} {
		if f.value != "" {
			d.CellFormat(0, lineHeight, p.t(f.code)+": "+p.tr(f.value), "", 1, "L", true, 0, "")
		}
	}
	d.Ln(8)
}

func (p *page) tableHeader() {
	d := p.doc
	d.SetFont(font, "B", 10)
	d.SetFillColor(accent[0], accent[1], accent[2])
	d.SetTextColor(255, 255, 255)
	heads := []struct {
		code, align string
	}{
		{"description", "L"},
		{"quantity", "C"},
		{"unit_price", "R"},
		{"vat_rate", "C"},
		{"line_total", "R"},
	}
	for i, h := range heads {
		d.CellFormat(colWidths[i], 8, p.t(h.code), "", 0, h.align, true, 0, "")
	}
	d.Ln(-1)
	d.SetTextColor(51, 51, 51)
	d.SetFont(font, "", 10)
}

func (p *page) lines(items []models.LineItem) {
	d := p.doc
	d.SetDrawColor(221, 221, 221)
	p.tableHeader()

	_, pageH := d.GetPageSize()
	for _, li := range items {
		desc := p.tr(li.Description)
		n := len(d.SplitLines([]byte(desc), colWidths[0]-2))
		if n < 1 {
			n = 1
		}
		h := float64(n) * lineHeight
		if d.GetY()+h > pageH-margin {
			d.AddPage()
			p.tableHeader()
		}

		x, y := d.GetXY()
		d.MultiCell(colWidths[0], lineHeight, desc, "B", "L", false)
		d.SetXY(x+colWidths[0], y)
		d.CellFormat(colWidths[1], h, formatQuantity(li.Quantity), "B", 0, "C", false, 0, "")
		d.CellFormat(colWidths[2], h, p.tr(formatMoney(li.UnitPrice)), "B", 0, "R", false, 0, "")
		d.CellFormat(colWidths[3], h, formatQuantity(li.VATRate)+"%", "B", 0, "C", false, 0, "")
		d.CellFormat(colWidths[4], h, p.tr(formatMoney(li.Total)), "B", 1, "R", false, 0, "")
	}
	d.Ln(8)
}

func (p *page) totals(inv *models.Invoice) {
	d := p.doc
	const boxW, labelW = 80.0, 45.0
	pageW, _ := d.GetPageSize()
	x := pageW - margin - boxW

	d.SetFillColor(245, 245, 245)
	row := func(code string, v float64) {
		d.SetX(x)
		d.CellFormat(labelW, 8, p.t(code)+":", "", 0, "L", true, 0, "")
		d.CellFormat(boxW-labelW, 8, p.tr(formatMoney(v)), "", 1, "R", true, 0, "")
	}
	d.SetFont(font, "", 11)
	row("subtotal", inv.Subtotal)
	row("total_vat", inv.TotalVAT)

	d.SetFont(font, "B", 13)
	d.SetTextColor(accent[0], accent[1], accent[2])
	d.SetDrawColor(51, 51, 51)
	d.SetX(x)
	d.CellFormat(labelW, 10, p.t("total")+":", "T", 0, "L", true, 0, "")
	d.CellFormat(boxW-labelW, 10, p.tr(formatMoney(inv.Total)), "T", 1, "R", true, 0, "")
	d.SetTextColor(51, 51, 51)
}

func (p *page) note(code, text string) {
	if text == "" {
		return
	}
	d := p.doc
	d.Ln(10)
	d.SetFillColor(255, 249, 196)
	d.SetFont(font, "B", 11)
	d.CellFormat(0, 8, p.t(code), "", 1, "L", true, 0, "")
	d.SetFont(font, "", 10)
	d.MultiCell(0, lineHeight, p.tr(text), "", "L", true)
}

func (p *page) footer(at time.Time) {
	d := p.doc
	d.Ln(16)
	d.SetFont(font, "", 8)
	d.SetTextColor(102, 102, 102)
	d.CellFormat(0, 5, p.tr(i18n.Tf(p.lang, "generated_on", i18n.FormatDate(p.lang, at))), "", 1, "C", false, 0, "")
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " €"
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

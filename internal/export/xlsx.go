// Package export writes document listings as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/diewo77/invoice-api/internal/models"
)

const (
	InvoicesSheet = "invoices"
	LinesSheet    = "lines"
)

var (
	invoiceHeader = []any{"Number", "Type", "Date", "Due date", "Client", "Status", "Subtotal", "VAT", "Total"}
	lineHeader    = []any{"Number", "Position", "Description", "Quantity", "Unit price", "VAT %", "Total"}
)

// InvoicesXLSX renders invs as a workbook with one row per document on the
// invoices sheet and one row per line item on the lines sheet.
func InvoicesXLSX(invs []models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	if err := writeRow(f, InvoicesSheet, 1, invoiceHeader); err != nil {
		return nil, err
	}
	if err := writeRow(f, LinesSheet, 1, lineHeader); err != nil {
		return nil, err
	}

	lineRow := 2
	for i, inv := range invs {
		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.Format("2006-01-02")
		}
		row := []any{
			inv.InvoiceNumber, string(inv.Type), inv.Date.Format("2006-01-02"), due,
			inv.Client.Name, string(inv.Status), inv.Subtotal, inv.TotalVAT, inv.Total,
		}
		if err := writeRow(f, InvoicesSheet, i+2, row); err != nil {
			return nil, err
		}
		for _, li := range inv.LineItems {
			row := []any{inv.InvoiceNumber, li.Position + 1, li.Description, li.Quantity, li.UnitPrice, li.VATRate, li.Total}
			if err := writeRow(f, LinesSheet, lineRow, row); err != nil {
				return nil, err
			}
			lineRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

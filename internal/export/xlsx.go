// Package export writes invoice records to spreadsheet files.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/smbops/invoice-copilot/internal/models"
)

// Sheet is the worksheet name used by InvoicesXLSX
const Sheet = "Invoices"

var headers = []string{
	"Invoice Number",
	"Vendor",
	"Vendor Email",
	"Issue Date",
	"Due Date",
	"Currency",
	"Subtotal",
	"Tax",
	"Total",
	"Status",
	"File",
}

// InvoicesXLSX renders records as an .xlsx workbook, one row per record
// after a header row.
func InvoicesXLSX(records []models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &cellWriter{f: f, sheet: Sheet}
	for i, h := range headers {
		w.set(i+1, 1, h)
	}
	for i, r := range records {
		row := i + 2
		w.set(1, row, r.InvoiceNo)
		w.set(2, row, r.Vendor)
		w.set(3, row, r.VendorEmail)
		w.set(4, row, r.IssueDate)
		w.set(5, row, r.DueDate)
		w.set(6, row, r.Currency)
		w.set(7, row, r.Subtotal.InexactFloat64())
		w.set(8, row, r.Tax.InexactFloat64())
		w.set(9, row, r.Total.InexactFloat64())
		w.set(10, row, string(r.Status))
		w.set(11, row, r.FileName)
	}
	if w.err != nil {
		return nil, fmt.Errorf("write cells: %w", w.err)
	}

	if len(records) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return nil, fmt.Errorf("amount style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(9, len(records)+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(Sheet, "G2", last, style); err != nil {
			return nil, fmt.Errorf("amount style: %w", err)
		}
	}
	if err := f.SetColWidth(Sheet, "A", "K", 16); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellWriter keeps the first cell error and skips writes after it.
type cellWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *cellWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, v)
}

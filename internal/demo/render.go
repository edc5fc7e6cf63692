// Package demo renders sample invoice documents for trying the service out.
package demo

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/smbops/invoice-copilot/internal/models"
)

// RenderInvoicePDF writes a one-page invoice whose labels the pattern
// extractor recognises.
func RenderInvoicePDF(inv models.Invoice, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceNo, false)
	pdf.SetCompression(false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %s", label, value))
		pdf.Ln(7)
	}
	line("Vendor", inv.Vendor)
	if inv.VendorAddress != "" {
		line("Vendor Address", inv.VendorAddress)
	}
	if inv.VendorEmail != "" {
		line("Vendor Email", inv.VendorEmail)
	}
	line("Invoice Number", inv.InvoiceNo)
	line("Issue Date", inv.IssueDate)
	line("Due Date", inv.DueDate)
	line("Currency", inv.Currency)
	pdf.Ln(6)

	if len(inv.LineItems) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(100, 8, "Description", "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 8, "Qty", "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, "Unit", "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, "Amount", "1", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, li := range inv.LineItems {
			pdf.CellFormat(100, 8, li.Desc, "1", 0, "", false, 0, "")
			pdf.CellFormat(20, 8, fmt.Sprint(li.Qty), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 8, li.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 8, li.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	line("Subtotal", inv.Subtotal.StringFixed(2))
	line("Tax", inv.Tax.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 12)
	line("Total", inv.Total.StringFixed(2))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/document"
	"github.com/smbops/invoice-copilot/internal/extract"
	"github.com/smbops/invoice-copilot/internal/models"
)

func TestRenderInvoicePDF(t *testing.T) {
	inv := models.Invoice{
		Vendor:    "Acme Tooling",
		InvoiceNo: "INV-042",
		IssueDate: "2024-05-01",
		DueDate:   "2024-05-15",
		Currency:  "USD",
		LineItems: []models.LineItem{
			{Desc: "Widget", Qty: 2, UnitPrice: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)},
		},
		Subtotal: decimal.NewFromInt(100),
		Tax:      decimal.NewFromInt(10),
		Total:    decimal.NewFromInt(110),
	}

	var buf bytes.Buffer
	if err := RenderInvoicePDF(inv, &buf); err != nil {
		t.Fatalf("RenderInvoicePDF: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
	// uncompressed content streams keep the labels readable
	for _, want := range []string{"Vendor: Acme Tooling", "Invoice Number: INV-042", "Total: 110.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("pdf missing %q", want)
		}
	}
}

func TestRenderInvoicePDF_ReadsBackThroughPatternRules(t *testing.T) {
	inv := models.Invoice{
		Vendor:    "Acme Co",
		InvoiceNo: "INV-042",
		IssueDate: "2024-05-01",
		DueDate:   "2024-05-15",
		Currency:  "USD",
		LineItems: []models.LineItem{
			{Desc: "Widget", Qty: 1, UnitPrice: decimal.RequireFromString("175"), Amount: decimal.RequireFromString("175")},
		},
		Subtotal: decimal.RequireFromString("175"),
		Tax:      decimal.RequireFromString("17.50"),
		Total:    decimal.RequireFromString("192.50"),
	}
	var buf bytes.Buffer
	if err := RenderInvoicePDF(inv, &buf); err != nil {
		t.Fatalf("RenderInvoicePDF: %v", err)
	}

	text, err := document.NewExtractor(nil).Extract(context.Background(), buf.Bytes(), "acme.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "\nVendor: Acme Co\n") {
		t.Fatalf("vendor line not isolated in %q", text)
	}

	got := extract.ParseFields(text)
	if got.Vendor != "Acme Co" {
		t.Errorf("vendor = %q", got.Vendor)
	}
	if got.InvoiceNo != "INV-042" {
		t.Errorf("invoice number = %q", got.InvoiceNo)
	}
	if got.IssueDate != "2024-05-01" || got.DueDate != "2024-05-15" {
		t.Errorf("dates = %q / %q", got.IssueDate, got.DueDate)
	}
	if !got.Total.Equal(decimal.RequireFromString("192.50")) {
		t.Errorf("total = %s", got.Total)
	}
	if !got.Subtotal.Equal(decimal.NewFromInt(175)) || !got.Tax.Equal(decimal.RequireFromString("17.5")) {
		t.Errorf("subtotal/tax = %s/%s", got.Subtotal, got.Tax)
	}
}

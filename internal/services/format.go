package services

import (
	"fmt"
	"strings"

	"github.com/smbops/invoice-copilot/internal/models"
)

// FormatInvoice renders the fixed seven-line summary. Missing values render empty.
func FormatInvoice(inv models.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vendor: %s\n", inv.Vendor)
	fmt.Fprintf(&b, "Address: %s\n", inv.VendorAddress)
	fmt.Fprintf(&b, "Email: %s\n", inv.VendorEmail)
	fmt.Fprintf(&b, "Invoice Number: %s\n", inv.InvoiceNo)
	fmt.Fprintf(&b, "Issue Date: %s\n", inv.IssueDate)
	fmt.Fprintf(&b, "Due Date: %s\n", inv.DueDate)
	fmt.Fprintf(&b, "Total: %s %s", inv.Total.StringFixed(2), inv.Currency)
	return b.String()
}

// UploadMessage is the confirmation returned after a successful upload
func UploadMessage(inv models.Invoice) string {
	return fmt.Sprintf("Invoice '%s' uploaded successfully! Vendor: %s, Total: %s %s, Due: %s.",
		inv.FileName, inv.Vendor, inv.Total.StringFixed(2), inv.Currency, inv.DueDate)
}

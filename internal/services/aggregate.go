package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

// DueWithin returns records whose due date falls on or before today+days,
// overdue records included. Missing or malformed due dates are skipped.
func DueWithin(records []models.Invoice, today time.Time, days int) []models.Invoice {
	y, m, d := today.Date()
	limit := time.Date(y, m, d+days, 0, 0, 0, 0, time.UTC)

	out := []models.Invoice{}
	for _, r := range records {
		due, ok := r.Due()
		if !ok {
			continue
		}
		if !due.After(limit) {
			out = append(out, r)
		}
	}
	return out
}

type vendorInvoiceKey struct {
	vendor    string
	invoiceNo string
}

// DedupeByVendorInvoice keeps the first record for each (vendor, invoice number).
func DedupeByVendorInvoice(records []models.Invoice) []models.Invoice {
	seen := make(map[vendorInvoiceKey]bool, len(records))
	out := make([]models.Invoice, 0, len(records))
	for _, r := range records {
		k := vendorInvoiceKey{r.Vendor, r.InvoiceNo}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// TopVendor returns the vendor with the largest summed total.
// Ties go to the vendor that appears first in records.
func TopVendor(records []models.Invoice) (string, decimal.Decimal, bool) {
	if len(records) == 0 {
		return "", decimal.Zero, false
	}
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, r := range records {
		if _, ok := sums[r.Vendor]; !ok {
			order = append(order, r.Vendor)
		}
		sums[r.Vendor] = sums[r.Vendor].Add(r.Total)
	}

	best := order[0]
	for _, v := range order[1:] {
		if sums[v].GreaterThan(sums[best]) {
			best = v
		}
	}
	return best, sums[best], true
}

// TotalSpend sums every record's total
func TotalSpend(records []models.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Total)
	}
	return sum
}

// Count is the number of records
func Count(records []models.Invoice) int {
	return len(records)
}

// Stats is the dashboard summary served by /api/stats
type Stats struct {
	Count          int             `json:"count"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
	TopVendor      string          `json:"top_vendor,omitempty"`
	TopVendorTotal decimal.Decimal `json:"top_vendor_total"`
	DueThisWeek    int             `json:"due_this_week"`
}

// Summarize computes Stats over records as of today
func Summarize(records []models.Invoice, today time.Time) Stats {
	s := Stats{
		Count:       Count(records),
		TotalSpend:  TotalSpend(records),
		DueThisWeek: len(DedupeByVendorInvoice(DueWithin(records, today, 7))),
	}
	if v, total, ok := TopVendor(records); ok {
		s.TopVendor = v
		s.TopVendorTotal = total
	}
	return s
}

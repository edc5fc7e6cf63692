package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an invoice record. Every record starts
// open; nothing in the service marks one paid yet.
type Status string

const (
	StatusOpen Status = "open"
	StatusPaid Status = "paid" // reserved
)

// Extraction methods recorded on each invoice
const (
	MethodPattern   = "pattern"
	MethodSynthetic = "synthetic"
)

// DateLayout is the only date format stored on a record
const DateLayout = "2006-01-02"

// DefaultCurrency is used when a document does not state one
const DefaultCurrency = "USD"

// Invoice is one extracted invoice. Empty strings mean "unknown".
type Invoice struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`

	// Vendor
	Vendor        string `json:"vendor"`
	VendorAddress string `json:"vendor_address"`
	VendorEmail   string `json:"vendor_email"`

	// Identification and dates (YYYY-MM-DD)
	InvoiceNo string `json:"invoice_no"`
	IssueDate string `json:"issue_date"`
	DueDate   string `json:"due_date"`

	// Amounts
	Currency  string          `json:"currency"`
	LineItems []LineItem      `json:"line_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`

	Status    Status    `json:"status"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

// LineItem is a single billed line
type LineItem struct {
	Desc      string          `json:"desc"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Clone returns a copy that shares no slices with inv
func (inv *Invoice) Clone() Invoice {
	c := *inv
	if inv.LineItems != nil {
		c.LineItems = make([]LineItem, len(inv.LineItems))
		copy(c.LineItems, inv.LineItems)
	}
	return c
}

// Due parses DueDate. ok is false when the date is missing or malformed.
func (inv *Invoice) Due() (time.Time, bool) {
	if inv.DueDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, inv.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// UploadResponse is returned by the upload endpoint
type UploadResponse struct {
	Success  bool     `json:"success"`
	Invoice  *Invoice `json:"invoice,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`

	// Processing metadata
	TotalDuration float64 `json:"totalDuration"`
}

// AskRequest is the body of a question
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the router's answer
type AskResponse struct {
	Answer string `json:"answer"`
}

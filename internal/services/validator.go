package services

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

// ValidationWarning represents a non-critical issue on an extracted record
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of checking one record
type ValidationResult struct {
	NeedsReview bool                `json:"needs_review"`
	Warnings    []ValidationWarning `json:"warnings"`
}

// Messages flattens the warnings for API responses
func (r *ValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Message)
	}
	return out
}

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validator cross-checks extracted invoice fields. It never rejects a record.
type Validator struct {
	tolerance decimal.Decimal // fraction of total (0.05 = 5%)
}

// NewValidator creates a validator with the default 5% tolerance
func NewValidator() *Validator {
	return &Validator{tolerance: decimal.NewFromFloat(0.05)}
}

// Validate performs all checks on inv
func (v *Validator) Validate(inv *models.Invoice) *ValidationResult {
	result := &ValidationResult{Warnings: []ValidationWarning{}}

	v.validatePresence(inv, result)
	v.validateTotal(inv, result)
	v.validateDates(inv, result)
	v.validateLineItems(inv, result)

	if inv.Currency != "" && !currencyCodeRe.MatchString(inv.Currency) {
		result.warn("currency", "currency_format", "Currency is not a three-letter code")
	}

	result.NeedsReview = len(result.Warnings) > 0
	return result
}

func (r *ValidationResult) warn(field, code, msg string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Code: code, Message: msg})
}

func (v *Validator) validatePresence(inv *models.Invoice, result *ValidationResult) {
	if inv.Vendor == "" {
		result.warn("vendor", "vendor_missing", "Vendor could not be read")
	}
	if inv.Total.IsZero() {
		result.warn("total", "total_missing", "Total could not be read")
	}
	if inv.DueDate == "" {
		result.warn("due_date", "due_missing", "Due date could not be read")
	}
}

// validateTotal checks total against subtotal + tax when both were read
func (v *Validator) validateTotal(inv *models.Invoice, result *ValidationResult) {
	if !inv.Total.IsPositive() || !inv.Subtotal.IsPositive() {
		return
	}
	expected := inv.Subtotal.Add(inv.Tax)
	diff := inv.Total.Sub(expected).Abs()
	if diff.GreaterThan(inv.Total.Mul(v.tolerance)) {
		result.warn("total", "total_mismatch",
			"Total "+inv.Total.StringFixed(2)+" does not match subtotal + tax "+expected.StringFixed(2))
	}
}

func (v *Validator) validateDates(inv *models.Invoice, result *ValidationResult) {
	if inv.IssueDate == "" || inv.DueDate == "" {
		return
	}
	// both are YYYY-MM-DD so lexical order is date order
	if inv.DueDate < inv.IssueDate {
		result.warn("due_date", "due_before_issue", "Due date is before the issue date")
	}
}

func (v *Validator) validateLineItems(inv *models.Invoice, result *ValidationResult) {
	if len(inv.LineItems) == 0 || !inv.Subtotal.IsPositive() {
		return
	}
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Amount)
	}
	if sum.Sub(inv.Subtotal).Abs().GreaterThan(inv.Subtotal.Mul(v.tolerance)) {
		result.warn("line_items", "items_mismatch", "Line items do not add up to the subtotal")
	}
}

package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

// amount matches "1,234.56", "1234.5" or "1234". The number must end there:
// "192.567" or "1,2345" match nothing rather than a truncated prefix.
const amount = `([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)(?:[^0-9.,]|[.,][^0-9]|[.,]?$)`

var (
	vendorRe        = regexp.MustCompile(`(?im)vendor:[ \t]*(.*)$`)
	vendorAddressRe = regexp.MustCompile(`(?im)vendor address:[ \t]*(.*)$`)
	addressRe       = regexp.MustCompile(`(?im)^[ \t]*address:[ \t]*(.*)$`)
	emailRe         = regexp.MustCompile(`(?im)(?:vendor email|email):[ \t]*([^\s@]+@[^\s@]+)(?:\s|$)`)
	invoiceNoRe     = regexp.MustCompile(`(?m)(?i:invoice number):[ \t]*([A-Z0-9_-]+)`)
	issueDateRe     = regexp.MustCompile(`(?i)issue date:[ \t]*([0-9]{4}-[0-9]{2}-[0-9]{2})\b`)
	dueDateRe       = regexp.MustCompile(`(?i)due date:[ \t]*([0-9]{4}-[0-9]{2}-[0-9]{2})\b`)
	currencyRe      = regexp.MustCompile(`(?i)currency:[ \t]*([A-Za-z]{3})\b`)

	totalRe    = amountLine(`total`)
	subtotalRe = amountLine(`sub-?total`)
	taxRe      = amountLine(`tax`)
)

// amountLine anchors label at the start of a line, then optional ":" or "-",
// an optional currency symbol and the amount.
func amountLine(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*` + label + `[ \t]*[:\-]?[ \t]*([$€£]?)[ \t]*` + amount)
}

var symbolCurrency = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// Pattern extracts fields with independent, order-insensitive label rules.
// Unmatched fields stay empty; amounts that do not parse become zero.
type Pattern struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewPattern creates the pattern strategy
func NewPattern(logger *slog.Logger) *Pattern {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pattern{logger: logger, now: time.Now}
}

func (p *Pattern) Name() string { return models.MethodPattern }

func (p *Pattern) NeedsText() bool { return true }

// Extract never fails once text is available.
func (p *Pattern) Extract(ctx context.Context, src Source) (*models.Invoice, error) {
	inv := ParseFields(src.Text)
	inv.ID = uuid.New().String()
	inv.FileName = src.FileName
	inv.StoragePath = src.StoragePath
	inv.CreatedAt = p.now()

	p.logger.Debug("extract.pattern",
		"file", src.FileName,
		"vendor", inv.Vendor,
		"invoice_no", inv.InvoiceNo,
		"total", inv.Total.String(),
	)
	return inv, nil
}

// ParseFields applies every field rule to text.
func ParseFields(text string) *models.Invoice {
	inv := &models.Invoice{
		Vendor:    firstGroup(vendorRe, text),
		InvoiceNo: firstGroup(invoiceNoRe, text),
		IssueDate: parseDate(firstGroup(issueDateRe, text)),
		DueDate:   parseDate(firstGroup(dueDateRe, text)),
		LineItems: []models.LineItem{},
		Status:    models.StatusOpen,
		Method:    models.MethodPattern,
	}

	inv.VendorAddress = firstGroup(vendorAddressRe, text)
	if inv.VendorAddress == "" {
		inv.VendorAddress = firstGroup(addressRe, text)
	}
	inv.VendorEmail = firstGroup(emailRe, text)

	var symbol string
	inv.Total, symbol = parseAmountLine(totalRe, text)
	inv.Subtotal, _ = parseAmountLine(subtotalRe, text)
	inv.Tax, _ = parseAmountLine(taxRe, text)

	switch code := strings.ToUpper(firstGroup(currencyRe, text)); {
	case code != "":
		inv.Currency = code
	case symbolCurrency[symbol] != "":
		inv.Currency = symbolCurrency[symbol]
	default:
		inv.Currency = models.DefaultCurrency
	}
	return inv
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func parseAmountLine(re *regexp.Regexp, text string) (decimal.Decimal, string) {
	m := re.FindStringSubmatch(text)
	if len(m) < 3 {
		return decimal.Zero, ""
	}
	return parseDecimal(m[2]), m[1]
}

// parseDecimal handles thousands separators ("3,965.34").
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	cleaned := strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// parseDate keeps s only if it is a real calendar date.
func parseDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

package extract

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

var demoVendors = []string{
	"Demo Vendor",
	"Northwind Supplies",
	"Blue Harbor Logistics",
	"Acme Office Co.",
	"Summit Cloud Services",
	"Greenleaf Catering",
}

var hundred = decimal.NewFromInt(100)

// Synthetic fabricates plausible records without reading the document.
// Amounts are internally consistent: subtotal + tax = total and the
// line items sum to the subtotal.
type Synthetic struct {
	cfg     models.SyntheticConfig
	counter Counter
	now     func() time.Time
	logger  *slog.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSynthetic creates the demo strategy. counter numbers invoices; rng and now are injectable for tests.
func NewSynthetic(cfg models.SyntheticConfig, counter Counter, rng *rand.Rand, now func() time.Time, logger *slog.Logger) *Synthetic {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Synthetic{cfg: cfg, counter: counter, rng: rng, now: now, logger: logger}
}

func (s *Synthetic) Name() string { return models.MethodSynthetic }

func (s *Synthetic) NeedsText() bool { return false }

func (s *Synthetic) Extract(ctx context.Context, src Source) (*models.Invoice, error) {
	issue := s.now()

	s.mu.Lock()
	dueIn := 1 + s.rng.IntN(max(s.cfg.MaxDueDays, 1))
	cents := s.randomCents()
	s.mu.Unlock()

	total := decimal.New(cents, -2)
	rate := decimal.NewFromFloat(s.cfg.TaxRate)
	subtotal := total.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	tax := total.Sub(subtotal)

	// 2 x A + 1 x B = subtotal, A rounded to the cent
	unitA := subtotal.Mul(decimal.NewFromFloat(0.3)).Round(2)
	amountA := unitA.Mul(decimal.NewFromInt(2))
	amountB := subtotal.Sub(amountA)

	inv := &models.Invoice{
		ID:          uuid.New().String(),
		FileName:    src.FileName,
		StoragePath: src.StoragePath,
		Vendor:      vendorFor(src.FileName),
		InvoiceNo:   s.invoiceNumber(src.FileName),
		IssueDate:   issue.Format(models.DateLayout),
		DueDate:     issue.AddDate(0, 0, dueIn).Format(models.DateLayout),
		Currency:    models.DefaultCurrency,
		LineItems: []models.LineItem{
			{Desc: "Product A", Qty: 2, UnitPrice: unitA, Amount: amountA},
			{Desc: "Product B", Qty: 1, UnitPrice: amountB, Amount: amountB},
		},
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		Status:    models.StatusOpen,
		Method:    models.MethodSynthetic,
		CreatedAt: issue,
	}

	s.logger.Debug("extract.synthetic",
		"file", src.FileName,
		"invoice_no", inv.InvoiceNo,
		"total", inv.Total.String(),
		"due", inv.DueDate,
	)
	return inv, nil
}

func (s *Synthetic) randomCents() int64 {
	lo := decimal.NewFromFloat(s.cfg.MinTotal).Mul(hundred).IntPart()
	hi := decimal.NewFromFloat(s.cfg.MaxTotal).Mul(hundred).IntPart()
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Int64N(hi-lo+1)
}

// invoiceNumber numbers a repeated filename by its occurrence count,
// anything else by the store size. Numbers are only unique when the
// caller adds each record before the next one is numbered.
func (s *Synthetic) invoiceNumber(filename string) string {
	if s.counter == nil {
		return "INV-001"
	}
	if k := s.counter.CountByFilename(filename); k > 0 {
		return fmt.Sprintf("INV-%03d", k+1)
	}
	return fmt.Sprintf("INV-%03d", s.counter.Len()+1)
}

func vendorFor(filename string) string {
	h := fnv.New32a()
	h.Write([]byte(filename))
	return demoVendors[h.Sum32()%uint32(len(demoVendors))]
}

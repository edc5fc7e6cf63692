package extract

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smbops/invoice-copilot/internal/models"
)

type fakeCounter struct {
	size   int
	byName map[string]int
}

func (f fakeCounter) Len() int                        { return f.size }
func (f fakeCounter) CountByFilename(name string) int { return f.byName[name] }

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

func newTestSynthetic(c Counter, seed uint64) *Synthetic {
	cfg := models.SyntheticConfig{MinTotal: 50, MaxTotal: 2500, MaxDueDays: 14, TaxRate: 0.10}
	return NewSynthetic(cfg, c, rand.New(rand.NewPCG(seed, seed+1)), fixedNow, nil)
}

func TestSynthetic_AmountsAreConsistent(t *testing.T) {
	for seed := uint64(1); seed <= 40; seed++ {
		s := newTestSynthetic(fakeCounter{}, seed)
		inv, err := s.Extract(context.Background(), Source{FileName: "x.pdf"})
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !inv.Subtotal.Add(inv.Tax).Equal(inv.Total) {
			t.Fatalf("seed %d: %s + %s != %s", seed, inv.Subtotal, inv.Tax, inv.Total)
		}
		var sum decimal.Decimal
		for _, li := range inv.LineItems {
			sum = sum.Add(li.Amount)
			if li.Qty < 0 || li.Amount.IsNegative() {
				t.Fatalf("seed %d: bad line item %+v", seed, li)
			}
		}
		if len(inv.LineItems) != 2 || !sum.Equal(inv.Subtotal) {
			t.Fatalf("seed %d: line items sum %s != subtotal %s", seed, sum, inv.Subtotal)
		}
		if inv.Total.LessThan(decimal.NewFromInt(50)) || inv.Total.GreaterThan(decimal.NewFromInt(2500)) {
			t.Fatalf("seed %d: total out of range: %s", seed, inv.Total)
		}
	}
}

func TestSynthetic_DueWithinWindow(t *testing.T) {
	s := newTestSynthetic(fakeCounter{}, 7)
	for i := 0; i < 30; i++ {
		inv, _ := s.Extract(context.Background(), Source{FileName: "x.pdf"})
		if inv.IssueDate != "2024-05-01" {
			t.Fatalf("issue = %q", inv.IssueDate)
		}
		due, ok := inv.Due()
		if !ok {
			t.Fatalf("due date missing")
		}
		days := int(due.Sub(fixedNow().Truncate(24*time.Hour)).Hours() / 24)
		if days < 1 || days > 14 {
			t.Fatalf("due %s is %d days out", inv.DueDate, days)
		}
	}
}

func TestSynthetic_InvoiceNumbering(t *testing.T) {
	c := fakeCounter{size: 4, byName: map[string]int{"dup.pdf": 2}}
	s := newTestSynthetic(c, 3)

	fresh, _ := s.Extract(context.Background(), Source{FileName: "new.pdf"})
	if fresh.InvoiceNo != "INV-005" {
		t.Fatalf("fresh = %q, want INV-005", fresh.InvoiceNo)
	}
	dup, _ := s.Extract(context.Background(), Source{FileName: "dup.pdf"})
	if dup.InvoiceNo != "INV-003" {
		t.Fatalf("dup = %q, want INV-003", dup.InvoiceNo)
	}
}

func TestSynthetic_VendorIsStablePerFilename(t *testing.T) {
	s := newTestSynthetic(fakeCounter{}, 9)
	a, _ := s.Extract(context.Background(), Source{FileName: "march.pdf"})
	b, _ := s.Extract(context.Background(), Source{FileName: "march.pdf"})
	if a.Vendor == "" || a.Vendor != b.Vendor {
		t.Fatalf("vendor unstable: %q vs %q", a.Vendor, b.Vendor)
	}
	if a.Method != models.MethodSynthetic || s.NeedsText() {
		t.Fatalf("unexpected strategy metadata")
	}
}

func TestNew_SelectsStrategy(t *testing.T) {
	p, err := New(models.ExtractionConfig{Mode: "pattern"}, nil, nil)
	if err != nil || p.Name() != models.MethodPattern {
		t.Fatalf("pattern: %v %v", p, err)
	}
	syn, err := New(models.ExtractionConfig{Mode: "synthetic", Synthetic: models.SyntheticConfig{MaxTotal: 10, MaxDueDays: 3}}, fakeCounter{}, nil)
	if err != nil || syn.Name() != models.MethodSynthetic {
		t.Fatalf("synthetic: %v %v", syn, err)
	}
	if _, err := New(models.ExtractionConfig{Mode: "vision"}, nil, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

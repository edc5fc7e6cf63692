// Package extract turns document text into invoice records.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/smbops/invoice-copilot/internal/models"
)

// Source is the input handed to a strategy for one upload.
type Source struct {
	FileName    string
	StoragePath string
	Text        string
}

// Strategy builds an invoice record from a Source.
type Strategy interface {
	Name() string
	// NeedsText reports whether Source.Text must be filled before Extract.
	NeedsText() bool
	Extract(ctx context.Context, src Source) (*models.Invoice, error)
}

// Counter exposes the store sizes the synthetic strategy numbers invoices from.
type Counter interface {
	Len() int
	CountByFilename(name string) int
}

// New returns the strategy selected by cfg.Mode.
func New(cfg models.ExtractionConfig, counter Counter, logger *slog.Logger) (Strategy, error) {
	switch cfg.Mode {
	case models.MethodPattern, "":
		return NewPattern(logger), nil
	case models.MethodSynthetic:
		seed := uint64(time.Now().UnixNano())
		rng := rand.New(rand.NewPCG(seed, seed>>1|1))
		return NewSynthetic(cfg.Synthetic, counter, rng, time.Now, logger), nil
	default:
		return nil, fmt.Errorf("unsupported extraction mode: %s", cfg.Mode)
	}
}

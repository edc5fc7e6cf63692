// Package store keeps extracted invoices in memory for the life of the process.
package store

import (
	"fmt"
	"sync"

	"github.com/smbops/invoice-copilot/internal/models"
)

// Store is the record collection shared by the upload path and the question path.
type Store interface {
	// Add records inv. In latest mode it replaces whatever was visible.
	Add(inv *models.Invoice)
	// Visible returns a copy of the records currently visible, oldest first.
	Visible() []models.Invoice
	// Recent returns up to n visible records, newest first.
	Recent(n int) []models.Invoice
	Get(id string) (models.Invoice, bool)
	Len() int
	CountByFilename(name string) int
	Mode() string
}

// Memory implements Store with a mutex-guarded slice.
type Memory struct {
	mu      sync.RWMutex
	mode    string
	records []models.Invoice
}

// New creates a store in the given mode (models.StoreHistory or models.StoreLatest).
func New(mode string) (*Memory, error) {
	switch mode {
	case models.StoreHistory, models.StoreLatest:
	default:
		return nil, fmt.Errorf("unsupported store mode: %q", mode)
	}
	return &Memory{mode: mode}, nil
}

// Mode reports the retention mode
func (m *Memory) Mode() string { return m.mode }

// Add stores a private copy of inv so later caller mutation cannot leak in.
func (m *Memory) Add(inv *models.Invoice) {
	c := inv.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == models.StoreLatest {
		m.records = []models.Invoice{c}
		return
	}
	m.records = append(m.records, c)
}

// Visible returns a snapshot of the visible records.
func (m *Memory) Visible() []models.Invoice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Invoice, len(m.records))
	for i := range m.records {
		out[i] = m.records[i].Clone()
	}
	return out
}

// Recent returns up to n records, newest first.
func (m *Memory) Recent(n int) []models.Invoice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.records) {
		n = len(m.records)
	}
	if n <= 0 {
		return []models.Invoice{}
	}
	out := make([]models.Invoice, 0, n)
	for i := len(m.records) - 1; i >= len(m.records)-n; i-- {
		out = append(out, m.records[i].Clone())
	}
	return out
}

// Get looks a visible record up by id
func (m *Memory) Get(id string) (models.Invoice, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.records {
		if m.records[i].ID == id {
			return m.records[i].Clone(), true
		}
	}
	return models.Invoice{}, false
}

// Len is the number of visible records
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// CountByFilename counts visible records uploaded under name.
func (m *Memory) CountByFilename(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for i := range m.records {
		if m.records[i].FileName == name {
			n++
		}
	}
	return n
}

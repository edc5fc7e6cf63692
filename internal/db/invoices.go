package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smbops/invoice-copilot/internal/models"
)

// execer is the part of a pool the journal writes through.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS invoice_uploads (
	id           UUID PRIMARY KEY,
	file_name    TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	vendor       TEXT NOT NULL DEFAULT '',
	invoice_no   TEXT NOT NULL DEFAULT '',
	issue_date   DATE,
	due_date     DATE,
	currency     TEXT NOT NULL DEFAULT 'USD',
	subtotal     NUMERIC(14,2) NOT NULL DEFAULT 0,
	tax          NUMERIC(14,2) NOT NULL DEFAULT 0,
	total        NUMERIC(14,2) NOT NULL DEFAULT 0,
	method       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO invoice_uploads (
	id, file_name, storage_path, vendor, invoice_no, issue_date, due_date,
	currency, subtotal, tax, total, method, created_at
) VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9::numeric, $10::numeric, $11::numeric, $12, $13)
ON CONFLICT (id) DO NOTHING`

// Journal appends one row per accepted upload. It is an audit trail only;
// the in-memory store is never rebuilt from it.
type Journal struct {
	db     execer
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewJournal wraps an open pool
func NewJournal(pool *pgxpool.Pool, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{db: pool, pool: pool, logger: logger}
}

// EnsureSchema creates the journal table if it is missing
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create invoice_uploads: %w", err)
	}
	return nil
}

// Record inserts inv
func (j *Journal) Record(ctx context.Context, inv *models.Invoice) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := j.db.Exec(ctx, insertSQL, recordArgs(inv)...)
	if err != nil {
		return fmt.Errorf("journal %s: %w", inv.ID, err)
	}
	return nil
}

// Count returns the number of journaled uploads
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	err := j.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_uploads`).Scan(&n)
	return n, err
}

// Ping reports whether the database is reachable
func (j *Journal) Ping(ctx context.Context) error {
	if j.pool == nil {
		return ErrNoDatabase
	}
	return j.pool.Ping(ctx)
}

// Close closes the underlying pool
func (j *Journal) Close() {
	if j.pool != nil {
		j.pool.Close()
		j.logger.Info("db.closed")
	}
}

func recordArgs(inv *models.Invoice) []any {
	return []any{
		inv.ID,
		inv.FileName,
		inv.StoragePath,
		inv.Vendor,
		inv.InvoiceNo,
		nullableDate(inv.IssueDate),
		nullableDate(inv.DueDate),
		inv.Currency,
		inv.Subtotal.StringFixed(2),
		inv.Tax.StringFixed(2),
		inv.Total.StringFixed(2),
		inv.Method,
		inv.CreatedAt,
	}
}

func nullableDate(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smbops/invoice-copilot/internal/extract"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/store"
)

// ErrUploadInput is returned when the upload has no usable file.
var ErrUploadInput = errors.New("invalid upload")

// DocumentStorage persists raw uploads and returns an opaque reference.
type DocumentStorage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// TextExtractor reads plain text out of a raw document.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// Journal records accepted uploads outside the process. Optional.
type Journal interface {
	Record(ctx context.Context, inv *models.Invoice) error
}

// UploadInput is one received document
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult is what the caller gets back for an accepted upload
type UploadResult struct {
	Invoice  models.Invoice
	Message  string
	Warnings []string
}

// UploadService runs storage, text extraction, field extraction and
// store insertion for each upload.
type UploadService struct {
	storage   DocumentStorage
	text      TextExtractor
	strategy  extract.Strategy
	store     store.Store
	journal   Journal
	validator *Validator
	logger    *slog.Logger

	// commit serialises field extraction with store insertion, so numbers
	// derived from the store count stay unique under concurrent uploads.
	commit sync.Mutex
}

// NewUploadService wires the pipeline. journal may be nil.
func NewUploadService(st DocumentStorage, text TextExtractor, strategy extract.Strategy, s store.Store, journal Journal, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		storage:   st,
		text:      text,
		strategy:  strategy,
		store:     s,
		journal:   journal,
		validator: NewValidator(),
		logger:    logger,
	}
}

// Upload processes one document. Errors match ErrUploadInput or
// document.ErrExtraction, or wrap a storage failure.
func (u *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	start := time.Now()

	name := SanitizeFilename(in.FileName)
	if name == "" {
		return nil, fmt.Errorf("%w: empty filename", ErrUploadInput)
	}

	key := uuid.New().String() + "__" + name
	ref, err := u.storage.Save(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	src := extract.Source{FileName: name, StoragePath: ref}
	if u.strategy.NeedsText() {
		src.Text, err = u.text.Extract(ctx, in.Data, name, in.ContentType)
		if err != nil {
			u.discard(ctx, ref)
			return nil, err
		}
	}

	inv, err := u.extractAndAdd(ctx, src)
	if err != nil {
		u.discard(ctx, ref)
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	check := u.validator.Validate(inv)

	if u.journal != nil {
		if err := u.journal.Record(ctx, inv); err != nil {
			u.logger.Warn("upload.journal.error", "id", inv.ID, "error", err)
		}
	}

	u.logger.Info("upload.ok",
		"id", inv.ID,
		"file", name,
		"method", inv.Method,
		"vendor", inv.Vendor,
		"total", inv.Total.String(),
		"warnings", len(check.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &UploadResult{
		Invoice:  inv.Clone(),
		Message:  UploadMessage(*inv),
		Warnings: check.Messages(),
	}, nil
}

func (u *UploadService) extractAndAdd(ctx context.Context, src extract.Source) (*models.Invoice, error) {
	u.commit.Lock()
	defer u.commit.Unlock()

	inv, err := u.strategy.Extract(ctx, src)
	if err != nil {
		return nil, err
	}
	u.store.Add(inv)
	return inv, nil
}

// discard removes a document whose upload was rejected after it was stored.
func (u *UploadService) discard(ctx context.Context, ref string) {
	if err := u.storage.Delete(context.WithoutCancel(ctx), ref); err != nil {
		u.logger.Warn("upload.discard.error", "ref", ref, "error", err)
	}
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with "_". Leading dots are dropped.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// Package document turns uploaded invoice files into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction matches every failure to read text out of a document.
var ErrExtraction = errors.New("document text extraction failed")

// ExtractionError describes why a document could not be read.
type ExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExtraction) match any ExtractionError.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// pageSource is the subset of a PDF reader the extractor walks.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct{ r *pdf.Reader }

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return pageLines(page.Content().Text), nil
}

// lineTolerance is how far, in points, glyph baselines may drift and still
// count as one line.
const lineTolerance = 1.0

// pageLines rebuilds text lines from positioned glyphs in content order.
// A baseline change starts a new line; a horizontal gap wider than a
// quarter of the font size becomes a single space.
func pageLines(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			switch {
			case math.Abs(t.Y-prev.Y) > lineTolerance:
				b.WriteByte('\n')
			case t.X-(prev.X+prev.W) > prev.FontSize/4 &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}

// Extractor reads text from PDF and plain-text documents.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger uses slog.Default().
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns the document text. PDF pages are joined with "\n" in page order;
// a page that yields no text contributes an empty string.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	start := time.Now()
	kind := Kind(filename, contentType)

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = e.extractPDF(ctx, data, filename)
	case KindText:
		if !utf8.Valid(data) {
			err = &ExtractionError{Filename: filename, Reason: "text document is not valid UTF-8"}
		} else {
			text = string(data)
		}
	default:
		err = &ExtractionError{Filename: filename, Reason: "unsupported document type " + contentType}
	}

	if err != nil {
		e.logger.Warn("document.extract.error", "file", filename, "error", err)
		return "", err
	}
	e.logger.Debug("document.extract.ok",
		"file", filename,
		"kind", kind,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte, filename string) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Filename: filename, Reason: "malformed PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Filename: filename, Reason: "cannot open PDF", Err: err}
	}
	return joinPages(ctx, pdfPages{r: r}, filename)
}

func joinPages(ctx context.Context, src pageSource, filename string) (string, error) {
	n := src.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Filename: filename, Reason: "cancelled", Err: err}
		}
		t, err := src.PageText(i)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Reason: fmt.Sprintf("page %d", i), Err: err}
		}
		pages = append(pages, t)
	}
	return strings.Join(pages, "\n"), nil
}

// Document kinds understood by the extractor
const (
	KindPDF     = "pdf"
	KindText    = "text"
	KindUnknown = "unknown"
)

// Kind classifies a document by extension first, then by content type.
func Kind(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".txt", ".text":
		return KindText
	}
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "application/pdf":
		return KindPDF
	case "text/plain":
		return KindText
	}
	return KindUnknown
}

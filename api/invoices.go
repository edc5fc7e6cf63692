package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smbops/invoice-copilot/internal/export"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/services"
	"github.com/smbops/invoice-copilot/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// presigner is implemented by backends that can hand out direct download links
type presigner interface {
	PresignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

// ListInvoices - GET /api/invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Parse pagination params
	page := 1
	limit := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}

	// newest first
	records := h.deps.Store.Recent(h.deps.Store.Len())
	total := len(records)

	offset := (page - 1) * limit
	pageItems := []models.Invoice{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		pageItems = records[offset:end]
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"invoices":    pageItems,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// GetInvoice - GET /api/invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	invoiceID := mux.Vars(r)["id"]
	inv, ok := h.deps.Store.Get(invoiceID)
	if !ok {
		h.sendError(w, http.StatusNotFound, "invoice not found")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"invoice":      inv,
		"summary":      services.FormatInvoice(inv),
		"document_url": h.documentURL(r.Context(), inv),
	})
}

// documentURL prefers a presigned storage link and falls back to the proxy route
func (h *Handler) documentURL(ctx context.Context, inv models.Invoice) string {
	if p, ok := h.deps.Storage.(presigner); ok && inv.StoragePath != "" {
		url, err := p.PresignedURL(ctx, inv.StoragePath, time.Hour)
		if err == nil {
			return url
		}
		h.logger.Warn("document.presign", "id", inv.ID, "error", err)
	}
	return "/api/invoices/" + inv.ID + "/document"
}

// GetDocument - GET /api/invoices/{id}/document streams the stored upload
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	invoiceID := mux.Vars(r)["id"]
	inv, ok := h.deps.Store.Get(invoiceID)
	if !ok || inv.StoragePath == "" {
		h.sendError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if h.deps.Storage == nil {
		h.sendError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}

	obj, err := h.deps.Storage.Open(r.Context(), inv.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("document.open", "id", invoiceID, "ref", inv.StoragePath, "error", err)
		h.sendError(w, http.StatusInternalServerError, "document not available")
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", storage.ContentTypeFor(inv.FileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", inv.FileName))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, obj); err != nil {
		h.logger.Warn("document.stream", "id", invoiceID, "error", err)
	}
}

// ExportInvoices - GET /api/invoices/export returns the visible records as XLSX
func (h *Handler) ExportInvoices(w http.ResponseWriter, r *http.Request) {
	b, err := export.InvoicesXLSX(h.deps.Store.Visible())
	if err != nil {
		h.logger.Error("export.xlsx", "error", err)
		h.sendError(w, http.StatusInternalServerError, "failed to export invoices")
		return
	}

	name := fmt.Sprintf("invoices-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Write(b)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/smbops/invoice-copilot/internal/ai"
	"github.com/smbops/invoice-copilot/internal/auth"
	"github.com/smbops/invoice-copilot/internal/document"
	"github.com/smbops/invoice-copilot/internal/intent"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/services"
	"github.com/smbops/invoice-copilot/internal/storage"
	"github.com/smbops/invoice-copilot/internal/store"
)

const Version = "1.0.0"

// JournalStatus reports on the optional upload journal
type JournalStatus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Deps are the collaborators the handler serves requests with
type Deps struct {
	Uploads *services.UploadService
	Router  *intent.Router
	Store   store.Store
	Storage storage.Storage
	Model   *ai.Adapter
	Auth    *auth.Service
	Journal JournalStatus // nil when no database is configured
	Logger  *slog.Logger
}

// Handler handles HTTP requests for the invoice copilot
type Handler struct {
	config *models.Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{config: config, deps: deps, logger: logger, now: time.Now}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.logRequests)

	// Main endpoints
	router.HandleFunc("/api/upload", h.Upload).Methods("POST")
	router.HandleFunc("/api/ask", h.Ask).Methods("POST")

	// Records
	router.HandleFunc("/api/invoices", h.ListInvoices).Methods("GET")
	router.HandleFunc("/api/invoices/export", h.ExportInvoices).Methods("GET")
	router.HandleFunc("/api/invoices/{id}", h.GetInvoice).Methods("GET")
	router.HandleFunc("/api/invoices/{id}/document", h.GetDocument).Methods("GET")
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	if h.deps.Auth != nil {
		router.HandleFunc("/api/login", h.deps.Auth.LoginHandler).Methods("POST")
	}

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	// Short aliases
	router.HandleFunc("/upload", h.Upload).Methods("POST")
	router.HandleFunc("/ask", h.Ask).Methods("POST")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	OK         bool              `json:"ok"`
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  string            `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Memory     MemoryStats       `json:"memory"`
	Store      StoreStatus       `json:"store"`
	Extraction string            `json:"extraction"`
	Storage    ServiceStatus     `json:"storage"`
	Database   ServiceStatus     `json:"database"`
	AI         map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// StoreStatus describes the in-memory store
type StoreStatus struct {
	Mode    string `json:"mode"`
	Records int    `json:"records"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	storageStatus := h.checkStorage()
	response := HealthResponse{
		OK:        true,
		Status:    "healthy",
		Version:   Version,
		Timestamp: h.now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Store:      StoreStatus{Mode: h.deps.Store.Mode(), Records: h.deps.Store.Len()},
		Extraction: h.config.Extraction.Mode,
		Storage:    storageStatus,
		Database:   h.checkDatabase(r.Context()),
		AI: map[string]string{
			"provider": h.deps.Model.Provider(),
			"timeout":  h.config.AI.Timeout.String(),
		},
	}

	// Uploads cannot work without document storage
	if !storageStatus.Available {
		response.OK = false
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *Handler) checkStorage() ServiceStatus {
	if h.deps.Storage == nil {
		return ServiceStatus{Available: false, Error: "storage not initialized"}
	}
	return ServiceStatus{Available: true, Version: h.deps.Storage.Backend()}
}

func (h *Handler) checkDatabase(ctx context.Context) ServiceStatus {
	if h.deps.Journal == nil {
		return ServiceStatus{Available: false, Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.deps.Journal.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	status := ServiceStatus{Available: true, Version: "PostgreSQL upload journal"}
	if n, err := h.deps.Journal.Count(ctx); err == nil {
		status.Version = fmt.Sprintf("PostgreSQL upload journal (%d rows)", n)
	}
	return status
}

// Upload accepts a multipart "file" field and runs it through extraction
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	start := time.Now()

	maxBytes := h.config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendUploadError(w, http.StatusRequestEntityTooLarge, "File too large", start)
			return
		}
		h.sendUploadError(w, http.StatusBadRequest, "No file part", start)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendUploadError(w, http.StatusBadRequest, "No file part", start)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.sendUploadError(w, http.StatusBadRequest, "No selected file", start)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendUploadError(w, http.StatusInternalServerError, "Failed to read file", start)
		return
	}

	contentType := header.Header.Get("Content-Type")
	filename := header.Filename
	if filepath.Ext(filename) == "" {
		filename += storage.GetFileExtension(contentType)
	}

	result, err := h.deps.Uploads.Upload(r.Context(), services.UploadInput{
		FileName:    filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUploadInput):
			h.sendUploadError(w, http.StatusBadRequest, err.Error(), start)
		case errors.Is(err, document.ErrExtraction):
			h.sendUploadError(w, http.StatusUnprocessableEntity, err.Error(), start)
		default:
			h.logger.Error("upload.error", "file", filename, "error", err)
			h.sendUploadError(w, http.StatusInternalServerError, "failed to process upload", start)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.UploadResponse{
		Success:       true,
		Invoice:       &result.Invoice,
		Message:       result.Message,
		Warnings:      result.Warnings,
		TotalDuration: time.Since(start).Seconds(),
	})
}

// Ask answers a natural-language question about the uploaded invoices
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.AskRequest
	// a malformed body is treated like a missing question
	_ = json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req)

	answer, err := h.deps.Router.Answer(r.Context(), req.Question)
	if errors.Is(err, intent.ErrMissingQuestion) {
		h.sendError(w, http.StatusBadRequest, "Missing 'question'")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to answer")
		return
	}

	json.NewEncoder(w).Encode(models.AskResponse{Answer: answer})
}

// GetStats returns aggregate figures over the visible invoices
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	stats := services.Summarize(h.deps.Store.Visible(), h.now())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (h *Handler) sendUploadError(w http.ResponseWriter, statusCode int, message string, start time.Time) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.UploadResponse{
		Success:       false,
		Error:         message,
		TotalDuration: time.Since(start).Seconds(),
	})
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests tags each request with an id and logs its outcome
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		if claims, err := auth.GetClaimsFromContext(r.Context()); err == nil {
			attrs = append(attrs, "user", claims.Username)
		}
		h.logger.Info("http.request", attrs...)
	})
}

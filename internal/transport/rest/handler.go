// Package rest provides the HTTP handlers for the catalog service.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/kchlu/stocktake/internal/export"
	"github.com/kchlu/stocktake/internal/ingest"
	"github.com/kchlu/stocktake/internal/search"
	"github.com/kchlu/stocktake/internal/service"
	"github.com/kchlu/stocktake/pkg/web"
)

// confirmTokenHeader carries the token issued by the first delete-all
// request back on the confirming request.
const confirmTokenHeader = "X-Confirm-Token"

// confirmTTL bounds how long an armed delete-all confirmation stays valid.
const confirmTTL = 30 * time.Second

// maxUploadBytes caps the multipart import payload.
const maxUploadBytes = 32 << 20

type Handler struct {
	service  service.InventoryService
	validate *validator.Validate
	logger   *slog.Logger

	// delete-all confirmation state: first request arms a single-use
	// token, the second request presents it. The two steps are always
	// separate requests, never one pass.
	confirmMu      sync.Mutex
	confirmToken   string
	confirmExpires time.Time
}

// NewHandler creates the catalog HTTP handler.
func NewHandler(svc service.InventoryService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Post("/", h.Create)
		r.Delete("/", h.DeleteAll)
		r.Post("/import", h.Import)
		r.Get("/export", h.Export)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Search returns the catalog ranked against the query parameter. With
// no query the snapshot comes back in insertion order.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	query := r.URL.Query().Get("query")
	policy := search.Policy(r.URL.Query().Get("policy"))
	if policy == "" {
		policy = search.PolicyTiered
	}

	mLogger.DebugContext(r.Context(), "Received search request", "query", query, "policy", string(policy))
	list, err := h.service.Search(r.Context(), query, policy)
	if err != nil {
		if errors.Is(err, cerrors.ErrValidation) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error searching products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to search products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByID retrieves a product by its id.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles manual product entry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var createDto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&createDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, createDto) {
		return
	}

	created, err := h.service.Create(r.Context(), createDto)
	if err != nil {
		if errors.Is(err, cerrors.ErrValidation) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update applies a quantity/notes patch to an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var updateDto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&updateDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, updateDto) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, updateDto)
	if err != nil {
		switch {
		case errors.Is(err, cerrors.ErrNotFound):
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		case errors.Is(err, cerrors.ErrValidation):
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %d", id))
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a single product.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for delete", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll clears the catalog behind a two-step confirmation. The
// first request arms a single-use token and returns 202; a second
// request presenting the token executes the clear. A wrong or expired
// token re-arms.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	presented := r.Header.Get(confirmTokenHeader)

	h.confirmMu.Lock()
	armed := h.confirmToken != "" && time.Now().Before(h.confirmExpires)
	if presented == "" || !armed || presented != h.confirmToken {
		token := uuid.NewString()
		h.confirmToken = token
		h.confirmExpires = time.Now().Add(confirmTTL)
		h.confirmMu.Unlock()

		mLogger.InfoContext(r.Context(), "Delete-all armed, awaiting confirmation")
		web.RespondJSON(w, mLogger, http.StatusAccepted, map[string]string{
			"confirm_token": token,
			"message":       "Repeat the request with the X-Confirm-Token header to delete all products",
		})
		return
	}
	h.confirmToken = ""
	h.confirmMu.Unlock()

	if err := h.service.DeleteAll(r.Context()); err != nil {
		mLogger.ErrorContext(r.Context(), "Error deleting all products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to delete all products")
		return
	}
	mLogger.InfoContext(r.Context(), "All products deleted")
	w.WriteHeader(http.StatusNoContent)
}

// importResponse reports an ingestion run to the caller.
type importResponse struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Import bulk-ingests a document uploaded as multipart form data. The
// source kind comes from the "kind" form field or, absent that, the
// filename extension.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	kind := ingest.SourceKind(r.FormValue("kind"))
	if kind == "" {
		kind, err = ingest.KindFromFilename(header.Filename)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
	}

	payload, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	mLogger.DebugContext(r.Context(), "Received import request",
		"filename", header.Filename, "kind", string(kind), "bytes", len(payload))

	report, err := h.service.Ingest(r.Context(), kind, payload)
	if err != nil {
		switch {
		case errors.Is(err, cerrors.ErrSchema), errors.Is(err, cerrors.ErrExtraction):
			mLogger.WarnContext(r.Context(), "Import rejected", "error", err)
			web.RespondError(w, mLogger, http.StatusUnprocessableEntity, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Error importing products", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		}
		return
	}

	mLogger.InfoContext(r.Context(), "Import completed",
		"imported", report.Inserted, "failed", len(report.Failures))
	web.RespondJSON(w, mLogger, http.StatusOK, importResponse{
		Imported: report.Inserted,
		Failed:   len(report.Failures),
		Errors:   report.FailureMessages(),
	})
}

// Export streams the catalog snapshot in the requested format.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.service.Export(r.Context(), format)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error exporting products", "format", string(format), "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to export products")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, map[string]string{"status": "ok"})
}

// validateStruct runs the validator and writes the per-field error map
// on failure. Returns true when the payload is valid.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, payload any) bool {
	if err := h.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

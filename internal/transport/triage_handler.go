package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"tienda-api/internal/domain"
	"tienda-api/internal/middleware"
	"tienda-api/internal/repository"
	"tienda-api/internal/service"
	"tienda-api/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatusRequest is the JSON payload for the status transition endpoints
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// TriageHandler serves the admin review surface for partner and credit
// applications: list, detail, document download, and status changes.
type TriageHandler struct {
	triageService service.TriageService
	logger        *zap.Logger
}

// NewTriageHandler creates a new TriageHandler
func NewTriageHandler(triageService service.TriageService, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{
		triageService: triageService,
		logger:        logger,
	}
}

// RegisterRoutes registers the triage routes behind the gate
func (h *TriageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/partner-applications", func(r chi.Router) {
		r.Get("/", h.ListPartnerApplications)
		r.Get("/{id}", h.GetPartnerApplication)
		r.Get("/{id}/documents/{field}", h.DownloadPartnerDocument)
		r.Patch("/{id}/status", h.SetPartnerStatus)
	})
	r.Route("/credit-applications", func(r chi.Router) {
		r.Get("/", h.ListCreditApplications)
		r.Get("/{id}", h.GetCreditApplication)
		r.Get("/{id}/documents/{field}", h.DownloadCreditDocument)
		r.Patch("/{id}/status", h.SetCreditStatus)
	})
}

// ListPartnerApplications returns all partner applications, newest first
func (h *TriageHandler) ListPartnerApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.triageService.ListPartnerApplications(r.Context())
	if err != nil {
		h.logger.Error("Failed to list partner applications", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load applications")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, applications)
}

// GetPartnerApplication returns one partner application by id
func (h *TriageHandler) GetPartnerApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	application, err := h.triageService.GetPartnerApplication(r.Context(), id)
	if err != nil {
		if err == repository.ErrApplicationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "application not found")
			return
		}

		h.logger.Error("Failed to get partner application", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load application")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, application)
}

// DownloadPartnerDocument streams a stored document as an attachment
func (h *TriageHandler) DownloadPartnerDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	reader, name, err := h.triageService.OpenPartnerDocument(r.Context(), id, chi.URLParam(r, "field"))
	if err != nil {
		h.respondDocumentError(w, err, "partner")
		return
	}
	defer reader.Close()

	h.streamDocument(w, reader, name)
}

// SetPartnerStatus moves a partner application between triage states
func (h *TriageHandler) SetPartnerStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}

	if err := h.triageService.SetPartnerStatus(r.Context(), id, status); err != nil {
		if err == repository.ErrApplicationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "application not found")
			return
		}

		h.logger.Error("Failed to update partner application status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.logger.Info("Partner application status updated",
		zap.String("application_id", id.String()),
		zap.String("status", string(status)))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// ListCreditApplications returns all credit applications, newest first
func (h *TriageHandler) ListCreditApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.triageService.ListCreditApplications(r.Context())
	if err != nil {
		h.logger.Error("Failed to list credit applications", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load applications")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, applications)
}

// GetCreditApplication returns one credit application by id
func (h *TriageHandler) GetCreditApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	application, err := h.triageService.GetCreditApplication(r.Context(), id)
	if err != nil {
		if err == repository.ErrApplicationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "application not found")
			return
		}

		h.logger.Error("Failed to get credit application", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load application")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, application)
}

// DownloadCreditDocument streams a stored document as an attachment
func (h *TriageHandler) DownloadCreditDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	reader, name, err := h.triageService.OpenCreditDocument(r.Context(), id, chi.URLParam(r, "field"))
	if err != nil {
		h.respondDocumentError(w, err, "credit")
		return
	}
	defer reader.Close()

	h.streamDocument(w, reader, name)
}

// SetCreditStatus moves a credit application between triage states
func (h *TriageHandler) SetCreditStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}

	if err := h.triageService.SetCreditStatus(r.Context(), id, status); err != nil {
		if err == repository.ErrApplicationNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "application not found")
			return
		}

		h.logger.Error("Failed to update credit application status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.logger.Info("Credit application status updated",
		zap.String("application_id", id.String()),
		zap.String("status", string(status)))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *TriageHandler) decodeStatus(w http.ResponseWriter, r *http.Request) (domain.ApplicationStatus, bool) {
	var req StatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return "", false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	return domain.ApplicationStatus(req.Status), true
}

func (h *TriageHandler) respondDocumentError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, repository.ErrApplicationNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrUnknownDocument):
		middleware.RespondWithError(w, http.StatusBadRequest, "unknown document field")
	case errors.Is(err, service.ErrDocumentMissing), errors.Is(err, storage.ErrObjectNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "document not found")
	default:
		h.logger.Error("Failed to open application document",
			zap.String("kind", kind), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to open document")
	}
}

func (h *TriageHandler) streamDocument(w http.ResponseWriter, reader io.Reader, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("Document stream interrupted", zap.Error(err))
	}
}

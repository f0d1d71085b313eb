package transport

import (
	"net/http"

	"tienda-api/internal/middleware"
	"tienda-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PartnerHandler accepts partner onboarding applications
type PartnerHandler struct {
	intakeService service.PartnerIntakeService
	logger        *zap.Logger
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(intakeService service.PartnerIntakeService, logger *zap.Logger) *PartnerHandler {
	return &PartnerHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// RegisterRoutes registers the partner intake route
func (h *PartnerHandler) RegisterRoutes(r chi.Router, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/partners", func(r chi.Router) {
		r.With(rateLimiter).Post("/applications", h.Submit)
	})
}

// Submit handles a partner application form. Validation errors are reported
// before any document is stored; an upload failure aborts the submission so
// the applicant can retry with the form intact.
func (h *PartnerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	submission := service.PartnerSubmission{
		FullName: r.FormValue("full_name"),
		HasIVA:   formBool(r, "has_iva"),
	}

	var err error
	if submission.AndeBill, err = formUpload(r, "ande_bill"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid ande_bill file")
		return
	}
	if submission.CedulaFront, err = formUpload(r, "cedula_front"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cedula_front file")
		return
	}
	if submission.CedulaBack, err = formUpload(r, "cedula_back"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cedula_back file")
		return
	}
	if submission.IVAMovements, err = formUpload(r, "iva_movements"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid iva_movements file")
		return
	}
	if submission.TaxCompliance, err = formUpload(r, "tax_compliance"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid tax_compliance file")
		return
	}

	app, err := h.intakeService.Submit(r.Context(), submission)
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			respondWithFieldErrors(w, verr)
			return
		}

		h.logger.Error("Partner application submission failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to submit application")
		return
	}

	h.logger.Info("Partner application submitted", zap.String("application_id", app.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, app)
}

// respondWithFieldErrors maps an intake validation failure onto the shared
// validation error envelope.
func respondWithFieldErrors(w http.ResponseWriter, verr *service.ErrValidation) {
	errors := make([]middleware.ValidationError, 0, len(verr.Fields))
	for field, message := range verr.Fields {
		errors = append(errors, middleware.ValidationError{Field: field, Message: message})
	}
	middleware.RespondWithValidationErrors(w, errors)
}

package transport

import (
	"net/http"

	"tienda-api/internal/domain"
	"tienda-api/internal/middleware"
	"tienda-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreditHandler accepts credit applications
type CreditHandler struct {
	intakeService service.CreditIntakeService
	logger        *zap.Logger
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(intakeService service.CreditIntakeService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// RegisterRoutes registers the credit intake route
func (h *CreditHandler) RegisterRoutes(r chi.Router, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/credits", func(r chi.Router) {
		r.With(rateLimiter).Post("/applications", h.Submit)
	})
}

// Submit handles a credit application form. Numeric fields arrive as raw
// text; the service owns parsing and the blank-field defaults.
func (h *CreditHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	submission := service.CreditSubmission{
		FullName:            r.FormValue("full_name"),
		DocumentNumber:      r.FormValue("document_number"),
		Address:             r.FormValue("address"),
		Amount:              r.FormValue("amount"),
		TermMonths:          r.FormValue("term_months"),
		MonthlyIncome:       r.FormValue("monthly_income"),
		MonthlyExpenses:     r.FormValue("monthly_expenses"),
		FamilyExpenses:      r.FormValue("family_expenses"),
		UtilityExpenses:     r.FormValue("utility_expenses"),
		RentExpenses:        r.FormValue("rent_expenses"),
		FuelExpenses:        r.FormValue("fuel_expenses"),
		InternetExpenses:    r.FormValue("internet_expenses"),
		BankInstallments:    r.FormValue("bank_installments"),
		DeclaredSalesIncome: r.FormValue("declared_sales_income"),
		Reference1: domain.ReferenceContact{
			Name:    r.FormValue("reference1_name"),
			Phone:   r.FormValue("reference1_phone"),
			Address: r.FormValue("reference1_address"),
		},
		Reference2: domain.ReferenceContact{
			Name:    r.FormValue("reference2_name"),
			Phone:   r.FormValue("reference2_phone"),
			Address: r.FormValue("reference2_address"),
		},
	}

	var err error
	if submission.CedulaFront, err = formUpload(r, "cedula_front"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cedula_front file")
		return
	}
	if submission.CedulaBack, err = formUpload(r, "cedula_back"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cedula_back file")
		return
	}
	if submission.AndeBill, err = formUpload(r, "ande_bill"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid ande_bill file")
		return
	}
	if submission.WorkCertificate, err = formUpload(r, "work_certificate"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid work_certificate file")
		return
	}

	app, err := h.intakeService.Submit(r.Context(), submission)
	if err != nil {
		if verr, ok := service.IsValidationError(err); ok {
			respondWithFieldErrors(w, verr)
			return
		}

		h.logger.Error("Credit application submission failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to submit application")
		return
	}

	h.logger.Info("Credit application submitted", zap.String("application_id", app.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, app)
}

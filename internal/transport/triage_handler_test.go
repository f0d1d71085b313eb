package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tienda-api/internal/domain"
	"tienda-api/internal/middleware"
	"tienda-api/internal/repository"
	"tienda-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubTriageService struct {
	partnerApps []*domain.PartnerApplication
	document    string
	documentErr error
	statusErr   error

	lastID     uuid.UUID
	lastField  string
	lastStatus domain.ApplicationStatus
}

func (s *stubTriageService) ListPartnerApplications(ctx context.Context) ([]*domain.PartnerApplication, error) {
	return s.partnerApps, nil
}

func (s *stubTriageService) GetPartnerApplication(ctx context.Context, id uuid.UUID) (*domain.PartnerApplication, error) {
	for _, app := range s.partnerApps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, repository.ErrApplicationNotFound
}

func (s *stubTriageService) OpenPartnerDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error) {
	s.lastID, s.lastField = id, field
	if s.documentErr != nil {
		return nil, "", s.documentErr
	}
	return io.NopCloser(strings.NewReader(s.document)), field + ".pdf", nil
}

func (s *stubTriageService) SetPartnerStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	s.lastID, s.lastStatus = id, status
	return s.statusErr
}

func (s *stubTriageService) ListCreditApplications(ctx context.Context) ([]*domain.CreditApplication, error) {
	return nil, nil
}

func (s *stubTriageService) GetCreditApplication(ctx context.Context, id uuid.UUID) (*domain.CreditApplication, error) {
	return nil, repository.ErrApplicationNotFound
}

func (s *stubTriageService) OpenCreditDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error) {
	return s.OpenPartnerDocument(ctx, id, field)
}

func (s *stubTriageService) SetCreditStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	return s.SetPartnerStatus(ctx, id, status)
}

func newTriageRouter(stub *stubTriageService) chi.Router {
	router := chi.NewRouter()
	NewTriageHandler(stub, zap.NewNop()).RegisterRoutes(router)
	return router
}

func TestDownloadPartnerDocument_StreamsAttachment(t *testing.T) {
	stub := &stubTriageService{document: "pdf bytes"}
	router := newTriageRouter(stub)

	id := uuid.New()
	req := httptest.NewRequest("GET", fmt.Sprintf("/partner-applications/%s/documents/ande_bill", id), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastID != id || stub.lastField != "ande_bill" {
		t.Errorf("unexpected service call: id=%s field=%s", stub.lastID, stub.lastField)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="ande_bill.pdf"` {
		t.Errorf("unexpected disposition: %s", got)
	}
	if w.Body.String() != "pdf bytes" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestDownloadPartnerDocument_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unknown field", service.ErrUnknownDocument, http.StatusBadRequest},
		{"wrapped missing document", fmt.Errorf("open document: %w", service.ErrDocumentMissing), http.StatusNotFound},
		{"application not found", repository.ErrApplicationNotFound, http.StatusNotFound},
		{"storage failure", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTriageRouter(&stubTriageService{documentErr: tt.err})

			req := httptest.NewRequest("GET",
				fmt.Sprintf("/partner-applications/%s/documents/ande_bill", uuid.New()), nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestSetPartnerStatus_ValidTransition(t *testing.T) {
	stub := &stubTriageService{}
	router := newTriageRouter(stub)

	id := uuid.New()
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/partner-applications/%s/status", id),
		strings.NewReader(`{"status": "approved"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastID != id || stub.lastStatus != domain.StatusApproved {
		t.Errorf("unexpected service call: id=%s status=%s", stub.lastID, stub.lastStatus)
	}
}

func TestSetPartnerStatus_RejectsUnknownStatus(t *testing.T) {
	stub := &stubTriageService{}
	router := newTriageRouter(stub)

	req := httptest.NewRequest("PATCH", fmt.Sprintf("/partner-applications/%s/status", uuid.New()),
		strings.NewReader(`{"status": "archived"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var response middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error.Message != "validation failed" {
		t.Errorf("unexpected message: %s", response.Error.Message)
	}
	if stub.lastStatus != "" {
		t.Error("service must not be called for an invalid status")
	}
}

func TestGetPartnerApplication_InvalidIDRejected(t *testing.T) {
	router := newTriageRouter(&stubTriageService{})

	req := httptest.NewRequest("GET", "/partner-applications/not-a-uuid", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

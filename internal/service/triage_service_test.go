package service

import (
	"context"
	"io"
	"testing"

	"tienda-api/internal/domain"
	"tienda-api/internal/repository"

	"github.com/google/uuid"
)

func newTestTriageService(t *testing.T) (TriageService, *mockPartnerApplicationRepository, *mockCreditApplicationRepository, *mockBlobStore) {
	t.Helper()
	partnerRepo := &mockPartnerApplicationRepository{}
	creditRepo := &mockCreditApplicationRepository{}
	store := newMockBlobStore()
	return NewTriageService(partnerRepo, creditRepo, store), partnerRepo, creditRepo, store
}

func submitPartnerApplication(t *testing.T, repo *mockPartnerApplicationRepository, store *mockBlobStore) *domain.PartnerApplication {
	t.Helper()
	intake := NewPartnerIntakeService(repo, store)
	app, err := intake.Submit(context.Background(), validPartnerSubmission(false))
	if err != nil {
		t.Fatalf("partner Submit failed: %v", err)
	}
	return app
}

func TestSetPartnerStatus_MovesBetweenStates(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)
	ctx := context.Background()

	app := submitPartnerApplication(t, partnerRepo, store)

	if err := service.SetPartnerStatus(ctx, app.ID, domain.StatusApproved); err != nil {
		t.Fatalf("SetPartnerStatus failed: %v", err)
	}

	stored, err := service.GetPartnerApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetPartnerApplication failed: %v", err)
	}
	if stored.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %s", stored.Status)
	}

	// Any transition between the three states is allowed, including back
	// to pending
	if err := service.SetPartnerStatus(ctx, app.ID, domain.StatusPending); err != nil {
		t.Fatalf("SetPartnerStatus back to pending failed: %v", err)
	}
}

func TestSetPartnerStatus_RejectsUnknownStatus(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)

	app := submitPartnerApplication(t, partnerRepo, store)

	if err := service.SetPartnerStatus(context.Background(), app.ID, "archived"); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if app.Status != domain.StatusPending {
		t.Error("expected status to stay pending")
	}
}

func TestSetCreditStatus_UnknownApplication(t *testing.T) {
	service, _, _, _ := newTestTriageService(t)

	err := service.SetCreditStatus(context.Background(), uuid.New(), domain.StatusRejected)
	if err != repository.ErrApplicationNotFound {
		t.Errorf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestOpenPartnerDocument_StreamsStoredContent(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)
	ctx := context.Background()

	app := submitPartnerApplication(t, partnerRepo, store)

	reader, name, err := service.OpenPartnerDocument(ctx, app.ID, "ande_bill")
	if err != nil {
		t.Fatalf("OpenPartnerDocument failed: %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(content) != "content of ande.pdf" {
		t.Errorf("unexpected document content: %s", content)
	}
	if name != *app.AndeBillPath {
		t.Errorf("expected stored filename %s, got %s", *app.AndeBillPath, name)
	}
}

func TestOpenPartnerDocument_UnknownFieldRejected(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)

	app := submitPartnerApplication(t, partnerRepo, store)

	if _, _, err := service.OpenPartnerDocument(context.Background(), app.ID, "passport"); err != ErrUnknownDocument {
		t.Errorf("expected ErrUnknownDocument, got %v", err)
	}
}

func TestOpenPartnerDocument_MissingDocument(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)

	// Submitted without the IVA flag, so the IVA slots are empty
	app := submitPartnerApplication(t, partnerRepo, store)

	if _, _, err := service.OpenPartnerDocument(context.Background(), app.ID, "iva_movements"); err != ErrDocumentMissing {
		t.Errorf("expected ErrDocumentMissing, got %v", err)
	}
}

func TestOpenCreditDocument_StreamsStoredContent(t *testing.T) {
	service, _, creditRepo, store := newTestTriageService(t)
	ctx := context.Background()

	intake := NewCreditIntakeService(creditRepo, store)
	submission := validCreditSubmission()
	submission.WorkCertificate = testUpload("certificado.pdf")
	app, err := intake.Submit(ctx, submission)
	if err != nil {
		t.Fatalf("credit Submit failed: %v", err)
	}

	reader, name, err := service.OpenCreditDocument(ctx, app.ID, "work_certificate")
	if err != nil {
		t.Fatalf("OpenCreditDocument failed: %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(content) != "content of certificado.pdf" {
		t.Errorf("unexpected document content: %s", content)
	}
	if name != *app.WorkCertificatePath {
		t.Errorf("expected stored filename %s, got %s", *app.WorkCertificatePath, name)
	}

	// Unattached slots report missing, not an error from storage
	if _, _, err := service.OpenCreditDocument(ctx, app.ID, "cedula_front"); err != ErrDocumentMissing {
		t.Errorf("expected ErrDocumentMissing, got %v", err)
	}
}

func TestListApplications_ReturnNewestFirst(t *testing.T) {
	service, partnerRepo, _, store := newTestTriageService(t)
	ctx := context.Background()

	first := submitPartnerApplication(t, partnerRepo, store)
	intake := NewPartnerIntakeService(partnerRepo, store)
	submission := validPartnerSubmission(false)
	submission.FullName = "Otro Comercio"
	second, err := intake.Submit(ctx, submission)
	if err != nil {
		t.Fatalf("partner Submit failed: %v", err)
	}

	applications, err := service.ListPartnerApplications(ctx)
	if err != nil {
		t.Fatalf("ListPartnerApplications failed: %v", err)
	}
	if len(applications) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(applications))
	}
	if applications[0].ID != second.ID || applications[1].ID != first.ID {
		t.Error("expected newest-first ordering")
	}
}

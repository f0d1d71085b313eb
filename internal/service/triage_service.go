package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tienda-api/internal/domain"
	"tienda-api/internal/repository"
	"tienda-api/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus   = errors.New("invalid application status")
	ErrDocumentMissing = errors.New("no document attached for this field")
	ErrUnknownDocument = errors.New("unknown document field")
)

// TriageService is the admin review surface over the two application
// tables: list, detail, authorized document download, and status
// transitions. Submitted fields are never edited and rows are never
// deleted.
type TriageService interface {
	ListPartnerApplications(ctx context.Context) ([]*domain.PartnerApplication, error)
	GetPartnerApplication(ctx context.Context, id uuid.UUID) (*domain.PartnerApplication, error)
	OpenPartnerDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error)
	SetPartnerStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error

	ListCreditApplications(ctx context.Context) ([]*domain.CreditApplication, error)
	GetCreditApplication(ctx context.Context, id uuid.UUID) (*domain.CreditApplication, error)
	OpenCreditDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error)
	SetCreditStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error
}

type triageService struct {
	partnerRepo repository.PartnerApplicationRepository
	creditRepo  repository.CreditApplicationRepository
	store       BlobStore
}

// NewTriageService creates a new instance of TriageService
func NewTriageService(
	partnerRepo repository.PartnerApplicationRepository,
	creditRepo repository.CreditApplicationRepository,
	store BlobStore,
) TriageService {
	return &triageService{
		partnerRepo: partnerRepo,
		creditRepo:  creditRepo,
		store:       store,
	}
}

func (s *triageService) ListPartnerApplications(ctx context.Context) ([]*domain.PartnerApplication, error) {
	return s.partnerRepo.List(ctx)
}

func (s *triageService) GetPartnerApplication(ctx context.Context, id uuid.UUID) (*domain.PartnerApplication, error) {
	return s.partnerRepo.FindByID(ctx, id)
}

// OpenPartnerDocument streams one of an application's stored documents from
// the partner bucket. Returns the stored filename for the download header.
func (s *triageService) OpenPartnerDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error) {
	app, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var path *string
	switch field {
	case "ande_bill":
		path = app.AndeBillPath
	case "cedula_front":
		path = app.CedulaFrontPath
	case "cedula_back":
		path = app.CedulaBackPath
	case "iva_movements":
		path = app.IVAMovementsPath
	case "tax_compliance":
		path = app.TaxCompliancePath
	default:
		return nil, "", ErrUnknownDocument
	}

	return s.openDocument(storage.BucketPartnerDocuments, path)
}

func (s *triageService) SetPartnerStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.partnerRepo.UpdateStatus(ctx, id, status)
}

func (s *triageService) ListCreditApplications(ctx context.Context) ([]*domain.CreditApplication, error) {
	return s.creditRepo.List(ctx)
}

func (s *triageService) GetCreditApplication(ctx context.Context, id uuid.UUID) (*domain.CreditApplication, error) {
	return s.creditRepo.FindByID(ctx, id)
}

// OpenCreditDocument streams one of an application's stored documents from
// the credit bucket.
func (s *triageService) OpenCreditDocument(ctx context.Context, id uuid.UUID, field string) (io.ReadCloser, string, error) {
	app, err := s.creditRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var path *string
	switch field {
	case "cedula_front":
		path = app.CedulaFrontPath
	case "cedula_back":
		path = app.CedulaBackPath
	case "ande_bill":
		path = app.AndeBillPath
	case "work_certificate":
		path = app.WorkCertificatePath
	default:
		return nil, "", ErrUnknownDocument
	}

	return s.openDocument(storage.BucketCreditDocuments, path)
}

func (s *triageService) SetCreditStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.creditRepo.UpdateStatus(ctx, id, status)
}

func (s *triageService) openDocument(bucket storage.Bucket, path *string) (io.ReadCloser, string, error) {
	if path == nil {
		return nil, "", ErrDocumentMissing
	}

	reader, err := s.store.Open(bucket, *path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open document: %w", err)
	}

	return reader, *path, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tienda-api/internal/domain"
	"tienda-api/internal/repository"
	"tienda-api/internal/storage"
)

// ErrValidation wraps intake form validation failures so transport can map
// them to 400 responses with field detail.
type ErrValidation struct {
	Fields map[string]string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// PartnerSubmission is the partner onboarding form as received. Document
// slots are nil when the applicant attached nothing.
type PartnerSubmission struct {
	FullName      string
	HasIVA        bool
	AndeBill      *Upload
	CedulaFront   *Upload
	CedulaBack    *Upload
	IVAMovements  *Upload
	TaxCompliance *Upload
}

// PartnerIntakeService accepts partner applications. Validation is a
// declarative rule set evaluated before any upload side effect: a rejected
// submission never touches storage. Uploads that completed before a later
// failure are not rolled back; orphaned files are accepted.
type PartnerIntakeService interface {
	Submit(ctx context.Context, submission PartnerSubmission) (*domain.PartnerApplication, error)
}

type partnerIntakeService struct {
	repo  repository.PartnerApplicationRepository
	store BlobStore
	now   func() time.Time
}

// NewPartnerIntakeService creates a new instance of PartnerIntakeService
func NewPartnerIntakeService(repo repository.PartnerApplicationRepository, store BlobStore) PartnerIntakeService {
	return &partnerIntakeService{repo: repo, store: store, now: time.Now}
}

// partnerRules is the declarative required-document rule set. Conditional
// rules apply only when the submission's HasIVA flag is set.
var partnerRules = []struct {
	field       string
	conditional bool
	present     func(s PartnerSubmission) bool
}{
	{"ande_bill", false, func(s PartnerSubmission) bool { return s.AndeBill != nil }},
	{"cedula_front", false, func(s PartnerSubmission) bool { return s.CedulaFront != nil }},
	{"cedula_back", false, func(s PartnerSubmission) bool { return s.CedulaBack != nil }},
	{"iva_movements", true, func(s PartnerSubmission) bool { return s.IVAMovements != nil }},
	{"tax_compliance", true, func(s PartnerSubmission) bool { return s.TaxCompliance != nil }},
}

func validatePartnerSubmission(s PartnerSubmission) error {
	fields := map[string]string{}

	if s.FullName == "" {
		fields["full_name"] = "This field is required"
	}
	for _, rule := range partnerRules {
		if rule.conditional && !s.HasIVA {
			continue
		}
		if !rule.present(s) {
			fields[rule.field] = "This document is required"
		}
	}

	if len(fields) > 0 {
		return &ErrValidation{Fields: fields}
	}
	return nil
}

// Submit validates, uploads each document, then inserts the row. A failed
// upload aborts the remaining uploads and the insert.
func (s *partnerIntakeService) Submit(ctx context.Context, submission PartnerSubmission) (*domain.PartnerApplication, error) {
	if err := validatePartnerSubmission(submission); err != nil {
		return nil, err
	}

	timestamp := s.now().UnixMilli()
	sanitized := storage.SanitizeName(submission.FullName)

	upload := func(doc *Upload, tag string) (*string, error) {
		if doc == nil {
			return nil, nil
		}
		name := fmt.Sprintf("%d_%s_%s", timestamp, sanitized, tag)
		if ext := storage.Ext(doc.Filename); ext != "" {
			name = name + "." + ext
		}
		path, err := s.store.Save(storage.BucketPartnerDocuments, name, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", tag, err)
		}
		return &path, nil
	}

	app := &domain.PartnerApplication{
		FullName: submission.FullName,
		HasIVA:   submission.HasIVA,
	}

	var err error
	if app.AndeBillPath, err = upload(submission.AndeBill, "ande"); err != nil {
		return nil, err
	}
	if app.CedulaFrontPath, err = upload(submission.CedulaFront, "cedula_front"); err != nil {
		return nil, err
	}
	if app.CedulaBackPath, err = upload(submission.CedulaBack, "cedula_back"); err != nil {
		return nil, err
	}
	if submission.HasIVA {
		if app.IVAMovementsPath, err = upload(submission.IVAMovements, "iva"); err != nil {
			return nil, err
		}
		if app.TaxCompliancePath, err = upload(submission.TaxCompliance, "tax"); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// IsValidationError reports whether err is an intake validation failure.
func IsValidationError(err error) (*ErrValidation, bool) {
	var verr *ErrValidation
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

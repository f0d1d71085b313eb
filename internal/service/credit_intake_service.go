package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tienda-api/internal/domain"
	"tienda-api/internal/repository"
	"tienda-api/internal/storage"
)

// CreditSubmission is the credit application form as received. Numeric
// fields arrive as raw text; parsing and the per-field blank semantics live
// here, not in transport.
type CreditSubmission struct {
	FullName       string
	DocumentNumber string
	Address        string

	Amount          string
	TermMonths      string
	MonthlyIncome   string
	MonthlyExpenses string

	FamilyExpenses   string
	UtilityExpenses  string
	RentExpenses     string // blank means 0
	FuelExpenses     string // blank means 0
	InternetExpenses string

	BankInstallments    string // free text, blank means NULL
	DeclaredSalesIncome string // blank means NULL

	Reference1 domain.ReferenceContact
	Reference2 domain.ReferenceContact

	CedulaFront     *Upload
	CedulaBack      *Upload
	AndeBill        *Upload
	WorkCertificate *Upload
}

// CreditIntakeService accepts credit applications. All four documents are
// optional and uploaded independently; a missing document stores as NULL.
// Malformed numeric text is rejected before any upload happens.
type CreditIntakeService interface {
	Submit(ctx context.Context, submission CreditSubmission) (*domain.CreditApplication, error)
}

type creditIntakeService struct {
	repo  repository.CreditApplicationRepository
	store BlobStore
	now   func() time.Time
}

// NewCreditIntakeService creates a new instance of CreditIntakeService
func NewCreditIntakeService(repo repository.CreditApplicationRepository, store BlobStore) CreditIntakeService {
	return &creditIntakeService{repo: repo, store: store, now: time.Now}
}

// Submit validates and parses the form, uploads whichever documents are
// present, then inserts the row.
func (s *creditIntakeService) Submit(ctx context.Context, submission CreditSubmission) (*domain.CreditApplication, error) {
	app, err := buildCreditApplication(submission)
	if err != nil {
		return nil, err
	}

	timestamp := s.now().UnixMilli()

	upload := func(doc *Upload, tag string) (*string, error) {
		if doc == nil {
			return nil, nil
		}
		name := fmt.Sprintf("%s-%d-%s", tag, timestamp, doc.Filename)
		path, err := s.store.Save(storage.BucketCreditDocuments, name, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", tag, err)
		}
		return &path, nil
	}

	if app.CedulaFrontPath, err = upload(submission.CedulaFront, "cedula-front"); err != nil {
		return nil, err
	}
	if app.CedulaBackPath, err = upload(submission.CedulaBack, "cedula-back"); err != nil {
		return nil, err
	}
	if app.AndeBillPath, err = upload(submission.AndeBill, "factura-ande"); err != nil {
		return nil, err
	}
	if app.WorkCertificatePath, err = upload(submission.WorkCertificate, "certificado-trabajo"); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// buildCreditApplication checks required fields and parses the numeric
// columns with their blank-value semantics: rent and fuel default to 0,
// declared sales income defaults to NULL, everything else is required.
func buildCreditApplication(s CreditSubmission) (*domain.CreditApplication, error) {
	fields := map[string]string{}

	requireText := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			fields[field] = "This field is required"
		}
	}

	requireText("full_name", s.FullName)
	requireText("document_number", s.DocumentNumber)
	requireText("address", s.Address)
	requireText("reference1_name", s.Reference1.Name)
	requireText("reference1_phone", s.Reference1.Phone)
	requireText("reference1_address", s.Reference1.Address)
	requireText("reference2_name", s.Reference2.Name)
	requireText("reference2_phone", s.Reference2.Phone)
	requireText("reference2_address", s.Reference2.Address)

	parseMoney := func(field, value string) float64 {
		value = strings.TrimSpace(value)
		if value == "" {
			fields[field] = "This field is required"
			return 0
		}
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil || amount < 0 {
			fields[field] = "Must be a non-negative number"
			return 0
		}
		return amount
	}

	parseMoneyOrZero := func(field, value string) float64 {
		if strings.TrimSpace(value) == "" {
			return 0
		}
		return parseMoney(field, value)
	}

	app := &domain.CreditApplication{
		FullName:       strings.TrimSpace(s.FullName),
		DocumentNumber: strings.TrimSpace(s.DocumentNumber),
		Address:        strings.TrimSpace(s.Address),
		Reference1:     s.Reference1,
		Reference2:     s.Reference2,
	}

	app.Amount = parseMoney("amount", s.Amount)
	app.MonthlyIncome = parseMoney("monthly_income", s.MonthlyIncome)
	app.MonthlyExpenses = parseMoney("monthly_expenses", s.MonthlyExpenses)
	app.FamilyExpenses = parseMoney("family_expenses", s.FamilyExpenses)
	app.UtilityExpenses = parseMoney("utility_expenses", s.UtilityExpenses)
	app.InternetExpenses = parseMoney("internet_expenses", s.InternetExpenses)
	app.RentExpenses = parseMoneyOrZero("rent_expenses", s.RentExpenses)
	app.FuelExpenses = parseMoneyOrZero("fuel_expenses", s.FuelExpenses)

	if term := strings.TrimSpace(s.TermMonths); term == "" {
		fields["term_months"] = "This field is required"
	} else if months, err := strconv.Atoi(term); err != nil || months < 1 {
		fields["term_months"] = "Must be a positive whole number of months"
	} else {
		app.TermMonths = months
	}

	if declared := strings.TrimSpace(s.DeclaredSalesIncome); declared != "" {
		amount, err := strconv.ParseFloat(declared, 64)
		if err != nil || amount < 0 {
			fields["declared_sales_income"] = "Must be a non-negative number"
		} else {
			app.DeclaredSalesIncome = &amount
		}
	}

	if installments := strings.TrimSpace(s.BankInstallments); installments != "" {
		app.BankInstallments = &installments
	}

	if len(fields) > 0 {
		return nil, &ErrValidation{Fields: fields}
	}
	return app, nil
}

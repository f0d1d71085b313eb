package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tienda-api/internal/domain"

	"github.com/google/uuid"
)

// CreditApplicationRepository defines the interface for credit application
// data access. Same lifecycle rules as partner applications: insert once,
// list, read, move status, never delete.
type CreditApplicationRepository interface {
	Create(ctx context.Context, app *domain.CreditApplication) error
	List(ctx context.Context) ([]*domain.CreditApplication, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CreditApplication, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error
}

type creditApplicationRepository struct {
	db *sql.DB
}

// NewCreditApplicationRepository creates a new CreditApplicationRepository
func NewCreditApplicationRepository(db *sql.DB) CreditApplicationRepository {
	return &creditApplicationRepository{db: db}
}

const creditColumns = `id, full_name, document_number, address, amount, term_months,
	monthly_income, monthly_expenses, family_expenses, utility_expenses,
	rent_expenses, fuel_expenses, internet_expenses, bank_installments,
	declared_sales_income,
	reference1_name, reference1_phone, reference1_address,
	reference2_name, reference2_phone, reference2_address,
	cedula_front_path, cedula_back_path, ande_bill_path, work_certificate_path,
	status, created_at, updated_at`

// Create inserts a new credit application with status defaulting to pending
func (r *creditApplicationRepository) Create(ctx context.Context, app *domain.CreditApplication) error {
	query := `
		INSERT INTO credit_applications
			(full_name, document_number, address, amount, term_months,
			 monthly_income, monthly_expenses, family_expenses, utility_expenses,
			 rent_expenses, fuel_expenses, internet_expenses, bank_installments,
			 declared_sales_income,
			 reference1_name, reference1_phone, reference1_address,
			 reference2_name, reference2_phone, reference2_address,
			 cedula_front_path, cedula_back_path, ande_bill_path, work_certificate_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		app.FullName,
		app.DocumentNumber,
		app.Address,
		app.Amount,
		app.TermMonths,
		app.MonthlyIncome,
		app.MonthlyExpenses,
		app.FamilyExpenses,
		app.UtilityExpenses,
		app.RentExpenses,
		app.FuelExpenses,
		app.InternetExpenses,
		app.BankInstallments,
		app.DeclaredSalesIncome,
		app.Reference1.Name,
		app.Reference1.Phone,
		app.Reference1.Address,
		app.Reference2.Name,
		app.Reference2.Phone,
		app.Reference2.Address,
		app.CedulaFrontPath,
		app.CedulaBackPath,
		app.AndeBillPath,
		app.WorkCertificatePath,
	).Scan(&app.ID, &app.Status, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create credit application: %w", err)
	}

	return nil
}

// List retrieves all credit applications, newest first
func (r *creditApplicationRepository) List(ctx context.Context) ([]*domain.CreditApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM credit_applications ORDER BY created_at DESC", creditColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit applications: %w", err)
	}
	defer rows.Close()

	apps := []*domain.CreditApplication{}
	for rows.Next() {
		app, err := scanCreditApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit application: %w", err)
		}
		apps = append(apps, app)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit applications: %w", err)
	}

	return apps, nil
}

// FindByID retrieves a credit application by ID
func (r *creditApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CreditApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM credit_applications WHERE id = $1", creditColumns)

	app, err := scanCreditApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to find credit application: %w", err)
	}

	return app, nil
}

// UpdateStatus moves an application through the triage lifecycle
func (r *creditApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	query := `UPDATE credit_applications SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update credit application status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrApplicationNotFound
	}

	return nil
}

func scanCreditApplication(row rowScanner) (*domain.CreditApplication, error) {
	var (
		app              domain.CreditApplication
		bankInstallments sql.NullString
		declaredSales    sql.NullFloat64
		cedulaFront      sql.NullString
		cedulaBack       sql.NullString
		andeBill         sql.NullString
		workCertificate  sql.NullString
	)

	err := row.Scan(
		&app.ID,
		&app.FullName,
		&app.DocumentNumber,
		&app.Address,
		&app.Amount,
		&app.TermMonths,
		&app.MonthlyIncome,
		&app.MonthlyExpenses,
		&app.FamilyExpenses,
		&app.UtilityExpenses,
		&app.RentExpenses,
		&app.FuelExpenses,
		&app.InternetExpenses,
		&bankInstallments,
		&declaredSales,
		&app.Reference1.Name,
		&app.Reference1.Phone,
		&app.Reference1.Address,
		&app.Reference2.Name,
		&app.Reference2.Phone,
		&app.Reference2.Address,
		&cedulaFront,
		&cedulaBack,
		&andeBill,
		&workCertificate,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.BankInstallments = nullableString(bankInstallments)
	if declaredSales.Valid {
		v := declaredSales.Float64
		app.DeclaredSalesIncome = &v
	}
	app.CedulaFrontPath = nullableString(cedulaFront)
	app.CedulaBackPath = nullableString(cedulaBack)
	app.AndeBillPath = nullableString(andeBill)
	app.WorkCertificatePath = nullableString(workCertificate)

	return &app, nil
}

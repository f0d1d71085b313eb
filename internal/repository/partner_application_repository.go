package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tienda-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
)

// PartnerApplicationRepository defines the interface for partner application
// data access. Applications are never deleted and their submitted fields are
// never edited; only the status column moves.
type PartnerApplicationRepository interface {
	Create(ctx context.Context, app *domain.PartnerApplication) error
	List(ctx context.Context) ([]*domain.PartnerApplication, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PartnerApplication, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error
}

type partnerApplicationRepository struct {
	db *sql.DB
}

// NewPartnerApplicationRepository creates a new PartnerApplicationRepository
func NewPartnerApplicationRepository(db *sql.DB) PartnerApplicationRepository {
	return &partnerApplicationRepository{db: db}
}

const partnerColumns = `id, full_name, ande_bill_path, cedula_front_path, cedula_back_path,
	has_iva, iva_movements_path, tax_compliance_path, status, created_at, updated_at`

// Create inserts a new partner application with status defaulting to pending
func (r *partnerApplicationRepository) Create(ctx context.Context, app *domain.PartnerApplication) error {
	query := `
		INSERT INTO partner_applications
			(full_name, ande_bill_path, cedula_front_path, cedula_back_path,
			 has_iva, iva_movements_path, tax_compliance_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		app.FullName,
		app.AndeBillPath,
		app.CedulaFrontPath,
		app.CedulaBackPath,
		app.HasIVA,
		app.IVAMovementsPath,
		app.TaxCompliancePath,
	).Scan(&app.ID, &app.Status, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create partner application: %w", err)
	}

	return nil
}

// List retrieves all partner applications, newest first
func (r *partnerApplicationRepository) List(ctx context.Context) ([]*domain.PartnerApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM partner_applications ORDER BY created_at DESC", partnerColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list partner applications: %w", err)
	}
	defer rows.Close()

	apps := []*domain.PartnerApplication{}
	for rows.Next() {
		app, err := scanPartnerApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner application: %w", err)
		}
		apps = append(apps, app)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating partner applications: %w", err)
	}

	return apps, nil
}

// FindByID retrieves a partner application by ID
func (r *partnerApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PartnerApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM partner_applications WHERE id = $1", partnerColumns)

	app, err := scanPartnerApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to find partner application: %w", err)
	}

	return app, nil
}

// UpdateStatus moves an application through the triage lifecycle
func (r *partnerApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) error {
	query := `UPDATE partner_applications SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update partner application status: %w", err)
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

func scanPartnerApplication(row rowScanner) (*domain.PartnerApplication, error) {
	var (
		app           domain.PartnerApplication
		andeBill      sql.NullString
		cedulaFront   sql.NullString
		cedulaBack    sql.NullString
		ivaMovements  sql.NullString
		taxCompliance sql.NullString
	)

	err := row.Scan(
		&app.ID,
		&app.FullName,
		&andeBill,
		&cedulaFront,
		&cedulaBack,
		&app.HasIVA,
		&ivaMovements,
		&taxCompliance,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.AndeBillPath = nullableString(andeBill)
	app.CedulaFrontPath = nullableString(cedulaFront)
	app.CedulaBackPath = nullableString(cedulaBack)
	app.IVAMovementsPath = nullableString(ivaMovements)
	app.TaxCompliancePath = nullableString(taxCompliance)

	return &app, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

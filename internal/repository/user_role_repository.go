package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tienda-api/internal/domain"

	"github.com/google/uuid"
)

// UserRoleRepository evaluates and manages role grants. HasRole is the sole
// authorization predicate in the system: a user is an admin iff a matching
// row exists, regardless of count.
type UserRoleRepository interface {
	HasRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error)
	Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error
}

type userRoleRepository struct {
	db *sql.DB
}

// NewUserRoleRepository creates a new instance of UserRoleRepository
func NewUserRoleRepository(db *sql.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

// HasRole reports whether a grant row exists for the user and role
func (r *userRoleRepository) HasRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}

	return exists, nil
}

// Grant adds a role to a user, idempotently
func (r *userRoleRepository) Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, userID, role)
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	return nil
}

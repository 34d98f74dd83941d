package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/novatix/novatix-backend/internal/domain"
)

// PostgresMembershipRepository implements MembershipRepository using PostgreSQL
type PostgresMembershipRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMembershipRepository creates a new PostgresMembershipRepository
func NewPostgresMembershipRepository(pool *pgxpool.Pool) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{pool: pool}
}

// GetOrganization retrieves an organization by ID
func (r *PostgresMembershipRepository) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, tenant_id, name, slug, is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`
	org := &domain.Organization{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.TenantID,
		&org.Name,
		&org.Slug,
		&org.IsActive,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

// IsAdmin returns true if the user holds the admin role in the organization
func (r *PostgresMembershipRepository) IsAdmin(ctx context.Context, userID, organizationID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM organization_members
			WHERE user_id = $1 AND organization_id = $2 AND role = 'admin'
		)
	`
	var isAdmin bool
	err := r.pool.QueryRow(ctx, query, userID, organizationID).Scan(&isAdmin)
	return isAdmin, err
}

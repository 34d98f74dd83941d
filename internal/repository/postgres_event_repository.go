package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/pkg/money"
)

// PostgresEventRepository implements EventRepository using PostgreSQL.
// Co-organizer agreements are stored as a JSONB column on the event row so
// the agreement set and the event version move in a single UPDATE.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create creates a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.Version == 0 {
		event.Version = 1
	}
	coOrganizers, err := json.Marshal(event.CoOrganizers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (id, tenant_id, name, slug, primary_organizer_id, status, start_date,
		                    tickets_sold, total_revenue_amount, total_revenue_currency,
		                    platform_fee_rate, co_organizers, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.pool.Exec(ctx, query,
		event.ID,
		event.TenantID,
		event.Name,
		event.Slug,
		event.PrimaryOrganizerID,
		event.Status,
		event.StartDate,
		event.TicketsSold,
		event.TotalRevenue.Amount,
		event.TotalRevenue.Currency,
		event.PlatformFeeRate,
		coOrganizers,
		event.Version,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, tenant_id, name, slug, primary_organizer_id, status, start_date,
		       tickets_sold, total_revenue_amount, total_revenue_currency,
		       platform_fee_rate, COALESCE(co_organizers, '[]'::jsonb) as co_organizers,
		       version, created_at, updated_at
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`
	event := &domain.Event{}
	var revenueAmount int64
	var revenueCurrency string
	var coOrganizers []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.TenantID,
		&event.Name,
		&event.Slug,
		&event.PrimaryOrganizerID,
		&event.Status,
		&event.StartDate,
		&event.TicketsSold,
		&revenueAmount,
		&revenueCurrency,
		&event.PlatformFeeRate,
		&coOrganizers,
		&event.Version,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	event.TotalRevenue = money.Money{Amount: revenueAmount, Currency: revenueCurrency}
	if err := json.Unmarshal(coOrganizers, &event.CoOrganizers); err != nil {
		return nil, err
	}
	return event, nil
}

// Update persists the event if its version still matches
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	coOrganizers, err := json.Marshal(event.CoOrganizers)
	if err != nil {
		return err
	}

	query := `
		UPDATE events
		SET name = $3, slug = $4, status = $5, start_date = $6, tickets_sold = $7,
		    total_revenue_amount = $8, total_revenue_currency = $9, platform_fee_rate = $10,
		    co_organizers = $11, version = version + 1, updated_at = $12
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`
	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Version,
		event.Name,
		event.Slug,
		event.Status,
		event.StartDate,
		event.TicketsSold,
		event.TotalRevenue.Amount,
		event.TotalRevenue.Currency,
		event.PlatformFeeRate,
		coOrganizers,
		now,
	)
	if err != nil {
		return err
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		// Either the row is gone or another writer won the version race
		existing, err := r.GetByID(ctx, event.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return &domain.NotFoundError{Resource: "event", ID: event.ID}
		}
		return domain.ErrVersionConflict
	}

	event.Version++
	event.UpdatedAt = now
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

// EventRepository defines the interface for event data access.
// Update applies optimistic concurrency control on the event version and
// returns domain.ErrVersionConflict when the stored version has moved.
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by ID, returning (nil, nil) when absent
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// Update persists the event if its version still matches
	Update(ctx context.Context, event *domain.Event) error
}

// CreditAccountRepository defines the interface for credit ledger data
// access. Reserve, CommitReservation and ReleaseReservation are atomic:
// concurrent reservations against the same account never overdraw it.
type CreditAccountRepository interface {
	// Create creates a new credit account
	Create(ctx context.Context, account *domain.CreditAccount) error
	// GetByOwner retrieves the account for an owner, returning (nil, nil) when absent
	GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error)
	// Update persists the account if its version still matches
	Update(ctx context.Context, account *domain.CreditAccount) error
	// Reserve atomically moves the reservation amount from remaining to
	// reserved and stores the reservation. Returns
	// domain.InsufficientCreditsError when the balance cannot cover it.
	Reserve(ctx context.Context, ownerID string, reservation *domain.CreditReservation) error
	// CommitReservation converts a reservation into spent credits,
	// appending the ledger entry, and returns the updated account
	CommitReservation(ctx context.Context, reservationID string, entry domain.LedgerEntry) (*domain.CreditAccount, error)
	// ReleaseReservation returns a reservation's amount to the remaining
	// balance without recording a ledger entry
	ReleaseReservation(ctx context.Context, reservationID string) (*domain.CreditAccount, error)
	// ExpiredReservations lists reservations past their deadline
	ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*domain.CreditReservation, error)
}

// MembershipRepository defines the interface for organization and
// membership lookups used by authorization checks
type MembershipRepository interface {
	// GetOrganization retrieves an organization by ID, returning (nil, nil) when absent
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	// IsAdmin returns true if the user holds the admin role in the organization
	IsAdmin(ctx context.Context, userID, organizationID string) (bool, error)
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

// MemoryCreditAccountRepository implements CreditAccountRepository with
// in-memory storage. A single mutex serializes every balance mutation, so
// concurrent reservations against one account can never overdraw it.
type MemoryCreditAccountRepository struct {
	mu           sync.Mutex
	accounts     map[string]*domain.CreditAccount     // keyed by owner ID
	reservations map[string]*domain.CreditReservation // keyed by reservation ID
}

// NewMemoryCreditAccountRepository creates a new MemoryCreditAccountRepository
func NewMemoryCreditAccountRepository() *MemoryCreditAccountRepository {
	return &MemoryCreditAccountRepository{
		accounts:     make(map[string]*domain.CreditAccount),
		reservations: make(map[string]*domain.CreditReservation),
	}
}

// Create creates a new credit account
func (r *MemoryCreditAccountRepository) Create(ctx context.Context, account *domain.CreditAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.OwnerID]; exists {
		return &domain.ValidationError{Message: "credit account already exists for owner " + account.OwnerID}
	}
	if account.Version == 0 {
		account.Version = 1
	}
	r.accounts[account.OwnerID] = cloneAccount(account)
	return nil
}

// GetByOwner retrieves the account for an owner
func (r *MemoryCreditAccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[ownerID]
	if !exists {
		return nil, nil
	}
	return cloneAccount(account), nil
}

// Update persists the account if its version still matches
func (r *MemoryCreditAccountRepository) Update(ctx context.Context, account *domain.CreditAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[account.OwnerID]
	if !exists {
		return &domain.NotFoundError{Resource: "credit account", ID: account.OwnerID}
	}
	if stored.Version != account.Version {
		return domain.ErrVersionConflict
	}

	updated := cloneAccount(account)
	updated.Version++
	updated.UpdatedAt = time.Now()
	r.accounts[account.OwnerID] = updated

	account.Version = updated.Version
	account.UpdatedAt = updated.UpdatedAt
	return nil
}

// Reserve atomically moves the reservation amount from remaining to reserved
func (r *MemoryCreditAccountRepository) Reserve(ctx context.Context, ownerID string, reservation *domain.CreditReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[ownerID]
	if !exists {
		return &domain.NotFoundError{Resource: "credit account", ID: ownerID}
	}
	if account.Remaining < reservation.Amount {
		return &domain.InsufficientCreditsError{
			Required:  reservation.Amount,
			Available: account.Remaining,
		}
	}

	account.Remaining -= reservation.Amount
	account.Reserved += reservation.Amount
	account.UpdatedAt = time.Now()
	account.Version++

	res := *reservation
	res.AccountID = account.ID
	r.reservations[res.ID] = &res
	return nil
}

// CommitReservation converts a reservation into spent credits
func (r *MemoryCreditAccountRepository) CommitReservation(ctx context.Context, reservationID string, entry domain.LedgerEntry) (*domain.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, exists := r.reservations[reservationID]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "reservation", ID: reservationID}
	}

	account := r.accountByID(res.AccountID)
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "credit account", ID: res.AccountID}
	}

	account.Reserved -= res.Amount
	account.Used += res.Amount
	entry.RemainingAfter = account.Remaining
	account.AppendEntry(entry)
	account.UpdatedAt = time.Now()
	account.Version++
	delete(r.reservations, reservationID)

	return cloneAccount(account), nil
}

// ReleaseReservation returns a reservation's amount to the remaining balance
func (r *MemoryCreditAccountRepository) ReleaseReservation(ctx context.Context, reservationID string) (*domain.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, exists := r.reservations[reservationID]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "reservation", ID: reservationID}
	}

	account := r.accountByID(res.AccountID)
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "credit account", ID: res.AccountID}
	}

	account.Reserved -= res.Amount
	account.Remaining += res.Amount
	account.UpdatedAt = time.Now()
	account.Version++
	delete(r.reservations, reservationID)

	return cloneAccount(account), nil
}

// ExpiredReservations lists reservations past their deadline
func (r *MemoryCreditAccountRepository) ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*domain.CreditReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := make([]*domain.CreditReservation, 0)
	for _, res := range r.reservations {
		if res.Expired(now) {
			copied := *res
			expired = append(expired, &copied)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (r *MemoryCreditAccountRepository) accountByID(id string) *domain.CreditAccount {
	for _, account := range r.accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

// cloneAccount returns a deep copy so callers never alias stored state
func cloneAccount(a *domain.CreditAccount) *domain.CreditAccount {
	out := *a
	out.History = make([]domain.LedgerEntry, len(a.History))
	copy(out.History, a.History)
	return &out
}

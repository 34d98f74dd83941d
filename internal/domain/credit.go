package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HistoryLimit is the number of ledger entries retained per account
const HistoryLimit = 50

// LedgerAction describes what a ledger entry records
type LedgerAction string

const (
	LedgerActionUsed  LedgerAction = "used"
	LedgerActionAdded LedgerAction = "added"
	LedgerActionReset LedgerAction = "reset"
)

// LedgerEntry is one record in an account's append-only usage history
type LedgerEntry struct {
	At             time.Time    `json:"at"`
	Action         LedgerAction `json:"action"`
	Amount         int          `json:"amount"`
	Operation      string       `json:"operation,omitempty"`
	RemainingAfter int          `json:"remaining_after"`
}

// CreditAccount tracks a single principal's consumable AI credits.
// Invariant: Used + Remaining + Reserved == Total at all times.
type CreditAccount struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Plan        Plan          `json:"plan"`
	Used        int           `json:"used"`
	Remaining   int           `json:"remaining"`
	Reserved    int           `json:"reserved"`
	Total       int           `json:"total"`
	LastResetAt time.Time     `json:"last_reset_at"`
	History     []LedgerEntry `json:"history"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewCreditAccount creates an account with the plan's starting allowance
func NewCreditAccount(ownerID string, plan Plan) *CreditAccount {
	now := time.Now()
	allowance := plan.CreditAllowance()
	return &CreditAccount{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Plan:        plan,
		Used:        0,
		Remaining:   allowance,
		Reserved:    0,
		Total:       allowance,
		LastResetAt: now,
		History:     []LedgerEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CheckInvariant verifies the balance equation. A violation after a
// supposedly-validated mutation is a bug signal, not a user error.
func (a *CreditAccount) CheckInvariant() error {
	if a.Used < 0 || a.Remaining < 0 || a.Reserved < 0 || a.Total < 0 {
		return fmt.Errorf("credit account %s: negative balance component (used=%d remaining=%d reserved=%d total=%d)",
			a.ID, a.Used, a.Remaining, a.Reserved, a.Total)
	}
	if a.Used+a.Remaining+a.Reserved != a.Total {
		return fmt.Errorf("credit account %s: balance mismatch (used=%d remaining=%d reserved=%d total=%d)",
			a.ID, a.Used, a.Remaining, a.Reserved, a.Total)
	}
	return nil
}

// AppendEntry appends a ledger entry and trims history to the most recent
// HistoryLimit entries
func (a *CreditAccount) AppendEntry(entry LedgerEntry) {
	a.History = append(a.History, entry)
	if len(a.History) > HistoryLimit {
		a.History = a.History[len(a.History)-HistoryLimit:]
	}
}

// CreditReservation is a provisional, reversible hold against an account's
// balance pending the outcome of an external generation call
type CreditReservation struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Operation string    `json:"operation"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired returns true once the reservation is past its reclaim deadline
func (r *CreditReservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

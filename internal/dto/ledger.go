package dto

import (
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

// LedgerEntryResponse is one usage history record in API responses
type LedgerEntryResponse struct {
	At             time.Time `json:"at"`
	Action         string    `json:"action"`
	Amount         int       `json:"amount"`
	Operation      string    `json:"operation,omitempty"`
	RemainingAfter int       `json:"remaining_after"`
}

// CreditBalanceResponse is the caller's current credit standing
type CreditBalanceResponse struct {
	Plan        string                `json:"plan"`
	Used        int                   `json:"used"`
	Remaining   int                   `json:"remaining"`
	Reserved    int                   `json:"reserved"`
	Total       int                   `json:"total"`
	LastResetAt time.Time             `json:"last_reset_at"`
	History     []LedgerEntryResponse `json:"history"`
}

// NewCreditBalanceResponse converts a domain account to its API shape
func NewCreditBalanceResponse(account *domain.CreditAccount) *CreditBalanceResponse {
	out := &CreditBalanceResponse{
		Plan:        string(account.Plan),
		Used:        account.Used,
		Remaining:   account.Remaining,
		Reserved:    account.Reserved,
		Total:       account.Total,
		LastResetAt: account.LastResetAt,
		History:     make([]LedgerEntryResponse, 0, len(account.History)),
	}
	for _, e := range account.History {
		out.History = append(out.History, LedgerEntryResponse{
			At:             e.At,
			Action:         string(e.Action),
			Amount:         e.Amount,
			Operation:      e.Operation,
			RemainingAfter: e.RemainingAfter,
		})
	}
	return out
}

package domain

import (
	"testing"
	"time"
)

func TestNewCreditAccount(t *testing.T) {
	account := NewCreditAccount("user-123", PlanPro)

	if account.ID == "" {
		t.Error("expected non-empty ID")
	}
	if account.OwnerID != "user-123" {
		t.Errorf("expected owner 'user-123', got '%s'", account.OwnerID)
	}
	if account.Remaining != 50 {
		t.Errorf("expected remaining 50 for pro plan, got %d", account.Remaining)
	}
	if account.Total != 50 {
		t.Errorf("expected total 50, got %d", account.Total)
	}
	if err := account.CheckInvariant(); err != nil {
		t.Errorf("new account violates invariant: %v", err)
	}
}

func TestCreditAccountCheckInvariant(t *testing.T) {
	tests := []struct {
		name    string
		account CreditAccount
		wantErr bool
	}{
		{
			name:    "balanced",
			account: CreditAccount{Used: 10, Remaining: 35, Reserved: 5, Total: 50},
			wantErr: false,
		},
		{
			name:    "mismatch",
			account: CreditAccount{Used: 10, Remaining: 35, Reserved: 5, Total: 49},
			wantErr: true,
		},
		{
			name:    "negative remaining",
			account: CreditAccount{Used: 55, Remaining: -5, Reserved: 0, Total: 50},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.CheckInvariant()
			if tt.wantErr && err == nil {
				t.Error("expected invariant violation, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected invariant error: %v", err)
			}
		})
	}
}

func TestCreditAccountAppendEntryTrimsHistory(t *testing.T) {
	account := NewCreditAccount("user-123", PlanPremium)

	for i := 0; i < HistoryLimit+10; i++ {
		account.AppendEntry(LedgerEntry{
			At:             time.Now(),
			Action:         LedgerActionUsed,
			Amount:         1,
			RemainingAfter: 200 - i,
		})
	}

	if len(account.History) != HistoryLimit {
		t.Fatalf("expected history capped at %d, got %d", HistoryLimit, len(account.History))
	}

	// The oldest entries must have been dropped, keeping the most recent.
	last := account.History[len(account.History)-1]
	if last.RemainingAfter != 200-(HistoryLimit+9) {
		t.Errorf("expected most recent entry retained, got remaining_after=%d", last.RemainingAfter)
	}
}

func TestCreditReservationExpired(t *testing.T) {
	now := time.Now()
	reservation := &CreditReservation{
		ExpiresAt: now.Add(5 * time.Minute),
	}

	if reservation.Expired(now) {
		t.Error("fresh reservation should not be expired")
	}
	if !reservation.Expired(now.Add(6 * time.Minute)) {
		t.Error("reservation past its deadline should be expired")
	}
}

func TestPlanCreditAllowance(t *testing.T) {
	tests := []struct {
		plan     Plan
		expected int
	}{
		{PlanFree, 5},
		{PlanPro, 50},
		{PlanPremium, 200},
	}

	for _, tt := range tests {
		if got := tt.plan.CreditAllowance(); got != tt.expected {
			t.Errorf("%s allowance = %d, want %d", tt.plan, got, tt.expected)
		}
	}
}

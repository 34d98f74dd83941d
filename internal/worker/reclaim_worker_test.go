package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/pkg/logger"
)

// countingLedger records ReclaimExpired calls
type countingLedger struct {
	mu    sync.Mutex
	calls int
}

func (l *countingLedger) Balance(ctx context.Context, ownerID string, plan domain.Plan) (*dto.CreditBalanceResponse, error) {
	return nil, nil
}

func (l *countingLedger) Reserve(ctx context.Context, ownerID string, plan domain.Plan, operation string, cost int) (*domain.CreditReservation, error) {
	return nil, nil
}

func (l *countingLedger) Commit(ctx context.Context, reservation *domain.CreditReservation, ownerID string) (*domain.CreditAccount, error) {
	return nil, nil
}

func (l *countingLedger) Release(ctx context.Context, reservationID string) error {
	return nil
}

func (l *countingLedger) AddCredits(ctx context.Context, ownerID string, amount int, reason string) (*domain.CreditAccount, error) {
	return nil, nil
}

func (l *countingLedger) ResetMonthly(ctx context.Context, ownerID string, plan domain.Plan) (*domain.CreditAccount, error) {
	return nil, nil
}

func (l *countingLedger) ReclaimExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return 0, nil
}

func (l *countingLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestReclaimWorker_SweepsOnInterval(t *testing.T) {
	ledger := &countingLedger{}
	w := NewReclaimWorker(ledger, logger.Get(), 10*time.Millisecond)

	ctx := context.Background()
	go w.Start(ctx)

	deadline := time.After(time.Second)
	for ledger.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeps = %d, want at least 2", ledger.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.Stop()
}

func TestReclaimWorker_StopsOnContextCancel(t *testing.T) {
	ledger := &countingLedger{}
	w := NewReclaimWorker(ledger, logger.Get(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

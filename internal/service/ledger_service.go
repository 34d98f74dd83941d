package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/novatix/novatix-backend/internal/domain"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/internal/events"
	"github.com/novatix/novatix-backend/internal/repository"
	"github.com/novatix/novatix-backend/pkg/logger"
	"github.com/novatix/novatix-backend/pkg/telemetry"
	"go.uber.org/zap"
)

// LedgerService defines the interface for the metered credit ledger.
// Reserve, Commit and Release form the spend cycle around an external
// generation call; credits only move to used on Commit.
type LedgerService interface {
	// Balance returns the caller's current credit standing, creating the
	// account on first access
	Balance(ctx context.Context, ownerID string, plan domain.Plan) (*dto.CreditBalanceResponse, error)
	// Reserve places a hold for the operation's cost
	Reserve(ctx context.Context, ownerID string, plan domain.Plan, operation string, cost int) (*domain.CreditReservation, error)
	// Commit finalizes a reservation into spent credits
	Commit(ctx context.Context, reservation *domain.CreditReservation, ownerID string) (*domain.CreditAccount, error)
	// Release returns a reservation's hold to the balance
	Release(ctx context.Context, reservationID string) error
	// AddCredits tops up an account outside the monthly cycle
	AddCredits(ctx context.Context, ownerID string, amount int, reason string) (*domain.CreditAccount, error)
	// ResetMonthly restores the account to its plan allowance
	ResetMonthly(ctx context.Context, ownerID string, plan domain.Plan) (*domain.CreditAccount, error)
	// ReclaimExpired releases reservations whose deadline has passed and
	// returns how many were reclaimed
	ReclaimExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ledgerService implements LedgerService
type ledgerService struct {
	creditRepo     repository.CreditAccountRepository
	publisher      events.Publisher
	log            *logger.Logger
	reservationTTL time.Duration
	resetInterval  time.Duration
	reservations   *telemetry.Counter
	commits        *telemetry.Counter
	releases       *telemetry.Counter
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	creditRepo repository.CreditAccountRepository,
	publisher events.Publisher,
	log *logger.Logger,
	reservationTTL time.Duration,
	resetInterval time.Duration,
) LedgerService {
	s := &ledgerService{
		creditRepo:     creditRepo,
		publisher:      publisher,
		log:            log,
		reservationTTL: reservationTTL,
		resetInterval:  resetInterval,
	}
	var err error
	if s.reservations, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "credit_reservations_total",
		Description: "Credit holds placed",
		Unit:        "1",
	}); err != nil {
		log.Warn("failed to create reservation counter", zap.Error(err))
	}
	if s.commits, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "credit_commits_total",
		Description: "Credit holds finalized into spend",
		Unit:        "1",
	}); err != nil {
		log.Warn("failed to create commit counter", zap.Error(err))
	}
	if s.releases, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "credit_releases_total",
		Description: "Credit holds returned unspent",
		Unit:        "1",
	}); err != nil {
		log.Warn("failed to create release counter", zap.Error(err))
	}
	return s
}

// Balance returns the caller's current credit standing
func (s *ledgerService) Balance(ctx context.Context, ownerID string, plan domain.Plan) (*dto.CreditBalanceResponse, error) {
	account, err := s.ensureAccount(ctx, ownerID, plan)
	if err != nil {
		return nil, err
	}
	return dto.NewCreditBalanceResponse(account), nil
}

// Reserve places a hold for the operation's cost. The repository performs
// the conditional decrement, so two racing reservations for the last
// credits resolve to exactly one winner.
func (s *ledgerService) Reserve(ctx context.Context, ownerID string, plan domain.Plan, operation string, cost int) (*domain.CreditReservation, error) {
	if _, err := s.ensureAccount(ctx, ownerID, plan); err != nil {
		return nil, err
	}

	now := time.Now()
	reservation := &domain.CreditReservation{
		ID:        uuid.New().String(),
		Operation: operation,
		Amount:    cost,
		CreatedAt: now,
		ExpiresAt: now.Add(s.reservationTTL),
	}
	if err := s.creditRepo.Reserve(ctx, ownerID, reservation); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	telemetry.AddSpanEvent(ctx, "credits.reserved", telemetry.OperationAttr(operation))
	if s.reservations != nil {
		s.reservations.Inc(ctx, telemetry.OperationAttr(operation), telemetry.PlanAttr(string(plan)))
	}
	return reservation, nil
}

// Commit finalizes a reservation into spent credits
func (s *ledgerService) Commit(ctx context.Context, reservation *domain.CreditReservation, ownerID string) (*domain.CreditAccount, error) {
	entry := domain.LedgerEntry{
		At:        time.Now(),
		Action:    domain.LedgerActionUsed,
		Amount:    reservation.Amount,
		Operation: reservation.Operation,
	}
	account, err := s.creditRepo.CommitReservation(ctx, reservation.ID, entry)
	if err != nil {
		return nil, err
	}

	if err := account.CheckInvariant(); err != nil {
		// A broken balance after a validated mutation is a bug, not a
		// user error
		s.log.ErrorContext(ctx, "credit invariant violated after commit", zap.Error(err))
	}

	s.publisher.Publish(ctx, events.TopicCreditsUsed, &events.CreditEvent{
		EventType: "credits.used",
		OwnerID:   ownerID,
		Operation: reservation.Operation,
		Amount:    reservation.Amount,
		Remaining: account.Remaining,
		Timestamp: entry.At,
	})
	if s.commits != nil {
		s.commits.Inc(ctx, telemetry.OperationAttr(reservation.Operation))
	}
	return account, nil
}

// Release returns a reservation's hold to the balance without any history entry
func (s *ledgerService) Release(ctx context.Context, reservationID string) error {
	if _, err := s.creditRepo.ReleaseReservation(ctx, reservationID); err != nil {
		return err
	}
	if s.releases != nil {
		s.releases.Inc(ctx)
	}
	return nil
}

// AddCredits tops up an account outside the monthly cycle
func (s *ledgerService) AddCredits(ctx context.Context, ownerID string, amount int, reason string) (*domain.CreditAccount, error) {
	if amount <= 0 {
		return nil, &domain.ValidationError{Message: "credit amount must be positive"}
	}

	account, err := s.creditRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "credit account", ID: ownerID}
	}

	now := time.Now()
	account.Remaining += amount
	account.Total += amount
	account.AppendEntry(domain.LedgerEntry{
		At:             now,
		Action:         domain.LedgerActionAdded,
		Amount:         amount,
		Operation:      reason,
		RemainingAfter: account.Remaining,
	})
	if err := s.creditRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TopicCreditsAdded, &events.CreditEvent{
		EventType: "credits.added",
		OwnerID:   ownerID,
		Amount:    amount,
		Remaining: account.Remaining,
		Timestamp: now,
	})
	return account, nil
}

// ResetMonthly restores the account to its plan allowance. In-flight
// reservations survive a reset; the total carries them until they settle.
func (s *ledgerService) ResetMonthly(ctx context.Context, ownerID string, plan domain.Plan) (*domain.CreditAccount, error) {
	account, err := s.creditRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "credit account", ID: ownerID}
	}

	now := time.Now()
	allowance := plan.CreditAllowance()
	account.Plan = plan
	account.Used = 0
	account.Remaining = allowance
	account.Total = allowance + account.Reserved
	account.LastResetAt = now
	account.AppendEntry(domain.LedgerEntry{
		At:             now,
		Action:         domain.LedgerActionReset,
		Amount:         allowance,
		RemainingAfter: account.Remaining,
	})
	if err := s.creditRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TopicCreditsReset, &events.CreditEvent{
		EventType: "credits.reset",
		OwnerID:   ownerID,
		Amount:    allowance,
		Remaining: account.Remaining,
		Timestamp: now,
	})
	s.log.InfoContext(ctx, "credit account reset",
		zap.String("owner_id", ownerID),
		zap.String("plan", string(plan)),
	)
	return account, nil
}

// ReclaimExpired releases reservations whose deadline has passed
func (s *ledgerService) ReclaimExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	expired, err := s.creditRepo.ExpiredReservations(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, res := range expired {
		if _, err := s.creditRepo.ReleaseReservation(ctx, res.ID); err != nil {
			s.log.ErrorContext(ctx, "failed to reclaim reservation",
				zap.String("reservation_id", res.ID),
				zap.Error(err),
			)
			continue
		}
		reclaimed++
	}
	if reclaimed > 0 {
		s.log.InfoContext(ctx, "reclaimed expired reservations", zap.Int("count", reclaimed))
	}
	return reclaimed, nil
}

// ensureAccount loads the owner's account, creating it with the plan's
// starting allowance on first access and applying an overdue monthly reset
func (s *ledgerService) ensureAccount(ctx context.Context, ownerID string, plan domain.Plan) (*domain.CreditAccount, error) {
	account, err := s.creditRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = domain.NewCreditAccount(ownerID, plan)
		if err := s.creditRepo.Create(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	if s.resetInterval > 0 && time.Since(account.LastResetAt) >= s.resetInterval {
		return s.ResetMonthly(ctx, ownerID, plan)
	}
	return account, nil
}

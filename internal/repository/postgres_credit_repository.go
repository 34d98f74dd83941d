package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/novatix/novatix-backend/internal/domain"
)

// PostgresCreditAccountRepository implements CreditAccountRepository using
// PostgreSQL. Reserve relies on a conditional UPDATE (remaining >= amount)
// so concurrent reservations against one account can never overdraw it;
// commit and release run in a transaction with a row lock on the account.
type PostgresCreditAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCreditAccountRepository creates a new PostgresCreditAccountRepository
func NewPostgresCreditAccountRepository(pool *pgxpool.Pool) *PostgresCreditAccountRepository {
	return &PostgresCreditAccountRepository{pool: pool}
}

// Create creates a new credit account
func (r *PostgresCreditAccountRepository) Create(ctx context.Context, account *domain.CreditAccount) error {
	if account.Version == 0 {
		account.Version = 1
	}
	history, err := json.Marshal(account.History)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credit_accounts (id, owner_id, plan, used, remaining, reserved, total,
		                             last_reset_at, history, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		account.ID,
		account.OwnerID,
		account.Plan,
		account.Used,
		account.Remaining,
		account.Reserved,
		account.Total,
		account.LastResetAt,
		history,
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

// GetByOwner retrieves the account for an owner
func (r *PostgresCreditAccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.CreditAccount, error) {
	query := `
		SELECT id, owner_id, plan, used, remaining, reserved, total, last_reset_at,
		       COALESCE(history, '[]'::jsonb) as history, version, created_at, updated_at
		FROM credit_accounts
		WHERE owner_id = $1
	`
	return r.scanAccount(r.pool.QueryRow(ctx, query, ownerID))
}

// Update persists the account if its version still matches
func (r *PostgresCreditAccountRepository) Update(ctx context.Context, account *domain.CreditAccount) error {
	history, err := json.Marshal(account.History)
	if err != nil {
		return err
	}

	query := `
		UPDATE credit_accounts
		SET plan = $3, used = $4, remaining = $5, reserved = $6, total = $7,
		    last_reset_at = $8, history = $9, version = version + 1, updated_at = $10
		WHERE owner_id = $1 AND version = $2
	`
	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		account.OwnerID,
		account.Version,
		account.Plan,
		account.Used,
		account.Remaining,
		account.Reserved,
		account.Total,
		account.LastResetAt,
		history,
		now,
	)
	if err != nil {
		return err
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		existing, err := r.GetByOwner(ctx, account.OwnerID)
		if err != nil {
			return err
		}
		if existing == nil {
			return &domain.NotFoundError{Resource: "credit account", ID: account.OwnerID}
		}
		return domain.ErrVersionConflict
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}

// Reserve atomically moves the reservation amount from remaining to reserved
func (r *PostgresCreditAccountRepository) Reserve(ctx context.Context, ownerID string, reservation *domain.CreditReservation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The remaining >= amount guard makes this safe under concurrency:
	// only one of two racing reservations for the last credits succeeds
	query := `
		UPDATE credit_accounts
		SET remaining = remaining - $2, reserved = reserved + $2,
		    version = version + 1, updated_at = $3
		WHERE owner_id = $1 AND remaining >= $2
		RETURNING id
	`
	var accountID string
	err = tx.QueryRow(ctx, query, ownerID, reservation.Amount, time.Now()).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.reserveFailure(ctx, ownerID, reservation.Amount)
		}
		return err
	}

	reservation.AccountID = accountID
	insertQuery := `
		INSERT INTO credit_reservations (id, account_id, operation, amount, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, insertQuery,
		reservation.ID,
		reservation.AccountID,
		reservation.Operation,
		reservation.Amount,
		reservation.CreatedAt,
		reservation.ExpiresAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// reserveFailure distinguishes a missing account from an insufficient balance
func (r *PostgresCreditAccountRepository) reserveFailure(ctx context.Context, ownerID string, amount int) error {
	account, err := r.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if account == nil {
		return &domain.NotFoundError{Resource: "credit account", ID: ownerID}
	}
	return &domain.InsufficientCreditsError{Required: amount, Available: account.Remaining}
}

// CommitReservation converts a reservation into spent credits
func (r *PostgresCreditAccountRepository) CommitReservation(ctx context.Context, reservationID string, entry domain.LedgerEntry) (*domain.CreditAccount, error) {
	return r.settleReservation(ctx, reservationID, &entry)
}

// ReleaseReservation returns a reservation's amount to the remaining balance
func (r *PostgresCreditAccountRepository) ReleaseReservation(ctx context.Context, reservationID string) (*domain.CreditAccount, error) {
	return r.settleReservation(ctx, reservationID, nil)
}

// settleReservation finalizes a reservation inside a transaction. A non-nil
// entry commits the hold as spent credits; nil releases it back to remaining.
func (r *PostgresCreditAccountRepository) settleReservation(ctx context.Context, reservationID string, entry *domain.LedgerEntry) (*domain.CreditAccount, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var accountID string
	var amount int
	deleteQuery := `
		DELETE FROM credit_reservations
		WHERE id = $1
		RETURNING account_id, amount
	`
	err = tx.QueryRow(ctx, deleteQuery, reservationID).Scan(&accountID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "reservation", ID: reservationID}
		}
		return nil, err
	}

	lockQuery := `
		SELECT id, owner_id, plan, used, remaining, reserved, total, last_reset_at,
		       COALESCE(history, '[]'::jsonb) as history, version, created_at, updated_at
		FROM credit_accounts
		WHERE id = $1
		FOR UPDATE
	`
	account, err := r.scanAccount(tx.QueryRow(ctx, lockQuery, accountID))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &domain.NotFoundError{Resource: "credit account", ID: accountID}
	}

	account.Reserved -= amount
	if entry != nil {
		account.Used += amount
		e := *entry
		e.RemainingAfter = account.Remaining
		account.AppendEntry(e)
	} else {
		account.Remaining += amount
	}
	account.Version++
	account.UpdatedAt = time.Now()

	history, err := json.Marshal(account.History)
	if err != nil {
		return nil, err
	}
	updateQuery := `
		UPDATE credit_accounts
		SET used = $2, remaining = $3, reserved = $4, history = $5,
		    version = $6, updated_at = $7
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, updateQuery,
		account.ID,
		account.Used,
		account.Remaining,
		account.Reserved,
		history,
		account.Version,
		account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return account, nil
}

// ExpiredReservations lists reservations past their deadline
func (r *PostgresCreditAccountRepository) ExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*domain.CreditReservation, error) {
	query := `
		SELECT id, account_id, operation, amount, created_at, expires_at
		FROM credit_reservations
		WHERE expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*domain.CreditReservation, 0)
	for rows.Next() {
		res := &domain.CreditReservation{}
		err := rows.Scan(
			&res.ID,
			&res.AccountID,
			&res.Operation,
			&res.Amount,
			&res.CreatedAt,
			&res.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

// rowScanner abstracts pgx.Row so scanAccount works on pool and tx rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresCreditAccountRepository) scanAccount(row rowScanner) (*domain.CreditAccount, error) {
	account := &domain.CreditAccount{}
	var history []byte
	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Plan,
		&account.Used,
		&account.Remaining,
		&account.Reserved,
		&account.Total,
		&account.LastResetAt,
		&history,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(history, &account.History); err != nil {
		return nil, err
	}
	return account, nil
}

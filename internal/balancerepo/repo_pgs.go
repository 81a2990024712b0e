package balancerepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/dbpkg"
	"github.com/finvault/corebank/pkg/errorspkg"
)

// RepoPGS is the postgres balance store. Optimistic concurrency uses a
// version column: UPDATE ... WHERE version = $n affects zero rows on a
// stale read.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns balance RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const initQuery = `
INSERT INTO
    balances (account_id, currency, ledger_balance, available_balance, held_balance, pending_balance, version)
VALUES
    ($1, $2, 0, 0, 0, 0, 0)
ON CONFLICT (account_id) DO NOTHING
`

// Init creates a zero balance for the account if none exists yet.
func (r *RepoPGS) Init(ctx context.Context, accountID, currency string) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	if _, err := r.db.ExecContext(ctx, initQuery, accountID, currency); err != nil {
		l.Error().Err(err).Send()
		return domain.Balance{}, errorspkg.ErrInternal
	}

	return r.Get(ctx, accountID)
}

const getQuery = `
SELECT account_id, currency, ledger_balance, available_balance, held_balance, pending_balance, version, updated_at
FROM balances
WHERE account_id = $1 LIMIT 1
`

// Get returns the current balance for the account.
func (r *RepoPGS) Get(ctx context.Context, accountID string) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	var (
		b        domain.Balance
		currency string
	)

	err := r.db.QueryRowContext(ctx, getQuery, accountID).Scan(
		&b.AccountID,
		&currency,
		&b.Ledger.Amount,
		&b.Available.Amount,
		&b.Held.Amount,
		&b.Pending.Amount,
		&b.Version,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return b, domain.ErrBalanceNotFound
		}

		l.Error().Err(err).Send()

		return b, errorspkg.ErrInternal
	}

	b.Ledger.Currency = currency
	b.Available.Currency = currency
	b.Held.Currency = currency
	b.Pending.Currency = currency

	return b, nil
}

const updateQuery = `
UPDATE balances
SET ledger_balance = $2,
    held_balance = $3,
    pending_balance = $4,
    available_balance = $2 - $3 - $4,
    version = version + 1,
    updated_at = now()
WHERE account_id = $1 AND version = $5
`

// Update writes the balance if its Version matches the stored one.
// A stale version fails with ErrStaleBalanceVersion.
func (r *RepoPGS) Update(ctx context.Context, b domain.Balance) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, updateQuery,
		b.AccountID, b.Ledger.Amount, b.Held.Amount, b.Pending.Amount, b.Version,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Balance{}, errorspkg.ErrInternal
	}

	affected, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Balance{}, errorspkg.ErrInternal
	}

	if affected == 0 {
		return domain.Balance{}, domain.ErrStaleBalanceVersion
	}

	return r.Get(ctx, b.AccountID)
}

const addHoldQuery = `
INSERT INTO
    holds (id, account_id, amount, currency, reason)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, account_id, amount, currency, reason, created_at
`

const bumpHeldQuery = `
UPDATE balances
SET held_balance = held_balance + $2,
    available_balance = ledger_balance - (held_balance + $2) - pending_balance,
    version = version + 1,
    updated_at = now()
WHERE account_id = $1
`

// AddHold reserves an amount against the account's available balance.
func (r *RepoPGS) AddHold(ctx context.Context, accountID string, amount domain.Money, reason string) (domain.Hold, error) {
	l := zerolog.Ctx(ctx)

	var h domain.Hold

	err := r.db.QueryRowContext(ctx, addHoldQuery, uuid.NewString(), accountID, amount.Amount, amount.Currency, reason).Scan(
		&h.ID,
		&h.AccountID,
		&h.Amount.Amount,
		&h.Amount.Currency,
		&h.Reason,
		&h.CreatedAt,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return h, errorspkg.ErrInternal
	}

	if _, err := r.db.ExecContext(ctx, bumpHeldQuery, accountID, amount.Amount); err != nil {
		l.Error().Err(err).Send()
		return h, errorspkg.ErrInternal
	}

	return h, nil
}

const removeHoldQuery = `
DELETE FROM holds WHERE id = $1 AND account_id = $2
RETURNING amount
`

// RemoveHold releases a previously added hold.
func (r *RepoPGS) RemoveHold(ctx context.Context, accountID, holdID string) error {
	l := zerolog.Ctx(ctx)

	var amount int64

	err := r.db.QueryRowContext(ctx, removeHoldQuery, holdID, accountID).Scan(&amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrBalanceNotFound
		}

		l.Error().Err(err).Send()

		return errorspkg.ErrInternal
	}

	if _, err := r.db.ExecContext(ctx, bumpHeldQuery, accountID, -amount); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

const getHoldsQuery = `
SELECT id, account_id, amount, currency, reason, created_at FROM holds
WHERE account_id = $1
ORDER BY created_at
`

// GetHolds returns the active holds for the account.
func (r *RepoPGS) GetHolds(ctx context.Context, accountID string) ([]domain.Hold, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, getHoldsQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	var out []domain.Hold

	for rows.Next() {
		var h domain.Hold

		err := rows.Scan(&h.ID, &h.AccountID, &h.Amount.Amount, &h.Amount.Currency, &h.Reason, &h.CreatedAt)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		out = append(out, h)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return out, nil
}

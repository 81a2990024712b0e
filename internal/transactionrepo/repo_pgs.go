package transactionrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/dbpkg"
	"github.com/finvault/corebank/pkg/errorspkg"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const saveQuery = `
INSERT INTO
    transactions (id, type, amount, currency, source_account_id, destination_account_id,
                  status, reference, idempotency_key, original_transaction_id, created_at, updated_at)
VALUES
    ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)
`

// Save stores a new transaction.
func (r *RepoPGS) Save(ctx context.Context, tx domain.Transaction) error {
	l := zerolog.Ctx(ctx)

	_, err := r.db.ExecContext(ctx, saveQuery,
		tx.ID, tx.Type, tx.Amount.Amount, tx.Amount.Currency,
		tx.SourceAccountID, tx.DestinationAccountID,
		tx.Status, tx.Reference, tx.IdempotencyKey, tx.OriginalTransactionID,
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		l.Error().Err(err).Msgf("Save(ctx, %s)", tx.ID)

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "transactions_idempotency_key_key" {
				return domain.ErrTransactionAlreadyProcessed
			}
		}

		return errorspkg.ErrInternal
	}

	return nil
}

const updateQuery = `
UPDATE transactions
SET status = $2,
    reversal_transaction_id = NULLIF($3, ''),
    failure_reason = NULLIF($4, ''),
    updated_at = $5,
    completed_at = $6
WHERE id = $1
`

// Update overwrites the mutable fields of an existing transaction.
func (r *RepoPGS) Update(ctx context.Context, tx domain.Transaction) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, updateQuery,
		tx.ID, tx.Status, tx.ReversalTransactionID, tx.FailureReason, tx.UpdatedAt, tx.CompletedAt,
	)
	if err != nil {
		l.Error().Err(err).Msgf("Update(ctx, %s)", tx.ID)
		return errorspkg.ErrInternal
	}

	affected, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if affected == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

const selectTransaction = `
SELECT id, type, amount, currency,
       COALESCE(source_account_id, ''), COALESCE(destination_account_id, ''),
       status, reference, COALESCE(idempotency_key, ''),
       COALESCE(original_transaction_id, ''), COALESCE(reversal_transaction_id, ''),
       COALESCE(failure_reason, ''), created_at, updated_at, completed_at
FROM transactions
`

func (r *RepoPGS) get(ctx context.Context, where string, arg string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var (
		tx          domain.Transaction
		completedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, selectTransaction+where, arg).Scan(
		&tx.ID, &tx.Type, &tx.Amount.Amount, &tx.Amount.Currency,
		&tx.SourceAccountID, &tx.DestinationAccountID,
		&tx.Status, &tx.Reference, &tx.IdempotencyKey,
		&tx.OriginalTransactionID, &tx.ReversalTransactionID,
		&tx.FailureReason, &tx.CreatedAt, &tx.UpdatedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return tx, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return tx, errorspkg.ErrInternal
	}

	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}

	return tx, nil
}

// Get returns the transaction with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Transaction, error) {
	return r.get(ctx, `WHERE id = $1 LIMIT 1`, id)
}

// GetByIdempotencyKey returns the transaction created under the given key.
func (r *RepoPGS) GetByIdempotencyKey(ctx context.Context, key string) (domain.Transaction, error) {
	return r.get(ctx, `WHERE idempotency_key = $1 LIMIT 1`, key)
}

const dailyTotalQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE source_account_id = $1
  AND type = $2
  AND status IN ('PENDING', 'PROCESSING', 'COMPLETED')
  AND created_at >= $3 AND created_at < $4
`

// DailyTotal sums the amounts of the account's transactions of the given
// type created on the given day. Used for daily cumulative limits.
func (r *RepoPGS) DailyTotal(ctx context.Context, accountID string, txType domain.TransactionType, day time.Time) (int64, error) {
	l := zerolog.Ctx(ctx)

	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var total int64

	err := r.db.QueryRowContext(ctx, dailyTotalQuery, accountID, txType, dayStart, dayEnd).Scan(&total)
	if err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return total, nil
}

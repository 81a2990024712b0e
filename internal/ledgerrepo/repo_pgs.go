package ledgerrepo

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/dbpkg"
	"github.com/finvault/corebank/pkg/errorspkg"
)

// RepoPGS is the postgres entry store. The schema has no UPDATE or DELETE
// path for ledger_entries; the table is append-only by construction.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns the entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const appendQuery = `
INSERT INTO
    ledger_entries (id, transaction_id, account_id, entry_type, amount, currency, running_balance, description)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, transaction_id, account_id, entry_type, amount, currency, running_balance, description, sequence, created_at
`

func scanEntry(row interface{ Scan(...interface{}) error }) (domain.Entry, error) {
	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.TransactionID,
		&e.AccountID,
		&e.Type,
		&e.Amount.Amount,
		&e.Amount.Currency,
		&e.RunningBalance.Amount,
		&e.Description,
		&e.Sequence,
		&e.CreatedAt,
	)
	e.RunningBalance.Currency = e.Amount.Currency

	return e, err
}

func appendTx(ctx context.Context, db dbpkg.SQLInterface, e domain.Entry) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := db.QueryRowContext(ctx, appendQuery,
		newEntryID(), e.TransactionID, e.AccountID, e.Type,
		e.Amount.Amount, e.Amount.Currency, e.RunningBalance.Amount, e.Description,
	)

	stored, err := scanEntry(row)
	if err != nil {
		l.Error().Err(err).Msgf("append entry for transaction %s", e.TransactionID)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "ledger_entries_account_id_fkey":
				return stored, domain.ErrAccountNotFound
			case "ledger_entries_amount_check":
				return stored, domain.ErrInvalidAmount
			}
		}

		return stored, errorspkg.ErrInternal
	}

	return stored, nil
}

// Append stores one entry and returns it with id, sequence and timestamp set.
func (r *RepoPGS) Append(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	return appendTx(ctx, r.db, e)
}

const selectEntries = `
SELECT id, transaction_id, account_id, entry_type, amount, currency, running_balance, description, sequence, created_at
FROM ledger_entries
`

func (r *RepoPGS) query(ctx context.Context, q string, args ...interface{}) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	var out []domain.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return out, nil
}

// ByAccount returns all entries for the account in append order.
func (r *RepoPGS) ByAccount(ctx context.Context, accountID string) ([]domain.Entry, error) {
	return r.query(ctx, selectEntries+`WHERE account_id = $1 ORDER BY sequence`, accountID)
}

// ByTransaction returns all entries for the transaction in append order.
func (r *RepoPGS) ByTransaction(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	return r.query(ctx, selectEntries+`WHERE transaction_id = $1 ORDER BY sequence`, transactionID)
}

// ByDateRange returns the account's entries created within [from, to].
func (r *RepoPGS) ByDateRange(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error) {
	return r.query(ctx, selectEntries+`WHERE account_id = $1 AND created_at BETWEEN $2 AND $3 ORDER BY sequence`, accountID, from, to)
}

// All returns every entry in append order.
func (r *RepoPGS) All(ctx context.Context) ([]domain.Entry, error) {
	return r.query(ctx, selectEntries+`ORDER BY sequence`)
}

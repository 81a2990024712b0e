package accountrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/dbpkg"
	"github.com/finvault/corebank/pkg/errorspkg"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    accounts (id, owner, currency, status, overdraft_limit)
VALUES
    ($1, $2, $3, 'ACTIVE', $4)
RETURNING id, owner, currency, status, overdraft_limit, created_at
`

func scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Currency,
		&a.Status,
		&a.OverdraftLimit.Amount,
		&a.CreatedAt,
	)
	a.OverdraftLimit.Currency = a.Currency

	return a, err
}

// Create stores a new active account and returns it.
func (r *RepoPGS) Create(ctx context.Context, owner, currency string, overdraftLimit int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, uuid.NewString(), owner, currency, overdraftLimit)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %v, %v, %v)", owner, currency, overdraftLimit)

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_currency_check" {
				return a, domain.ErrCurrencyMismatch
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT id, owner, currency, status, overdraft_limit, created_at FROM accounts
WHERE id = $1 LIMIT 1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const setStatusQuery = `
UPDATE accounts SET status = $2 WHERE id = $1
RETURNING id, owner, currency, status, overdraft_limit, created_at
`

// SetStatus updates the account status.
func (r *RepoPGS) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, setStatusQuery, id, status))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

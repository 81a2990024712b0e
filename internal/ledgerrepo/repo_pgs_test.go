package ledgerrepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/currencypkg"
)

var entryColumns = []string{
	"id", "transaction_id", "account_id", "entry_type",
	"amount", "currency", "running_balance", "description", "sequence", "created_at",
}

func TestRepoPGSByAccount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT.+FROM ledger_entries\s+WHERE account_id`).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("01H", "tx-1", "acc-1", "DEBIT", int64(15000), currencypkg.USD, int64(15000), "transfer", int64(1), now))

	entries, err := repo.ByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.NewMoney(15000, currencypkg.USD), entries[0].Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPGSAppend(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepoPGS(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO\s+ledger_entries`).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("01H", "tx-1", "acc-1", "DEBIT", int64(15000), currencypkg.USD, int64(15000), "transfer", int64(1), now))

	stored, err := repo.Append(context.Background(), testEntry("tx-1", "acc-1", domain.Debit, 15000))
	require.NoError(t, err)
	require.Equal(t, domain.Debit, stored.Type)
	require.Equal(t, currencypkg.USD, stored.RunningBalance.Currency)
	require.Equal(t, int64(1), stored.Sequence)
	require.NoError(t, mock.ExpectationsWereMet())
}

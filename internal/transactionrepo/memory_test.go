package transactionrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/currencypkg"
)

func TestSaveAndLookup(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	tx, err := domain.NewTransfer(domain.NewMoney(15000, currencypkg.USD), "acc-1", "acc-2", "ref-1")
	require.NoError(t, err)
	tx.IdempotencyKey = "idem-1"

	require.NoError(t, repo.Save(ctx, tx))

	got, err := repo.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, tx, got)

	byKey, err := repo.GetByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	require.Equal(t, tx.ID, byKey.ID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = repo.GetByIdempotencyKey(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestUpdate(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	tx, err := domain.NewDeposit(domain.NewMoney(10000, currencypkg.USD), "acc-1", "ref-1")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, tx))

	require.NoError(t, tx.MarkProcessing())
	require.NoError(t, repo.Update(ctx, tx))

	got, err := repo.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, got.Status)

	missing := tx
	missing.ID = "missing"
	require.ErrorIs(t, repo.Update(ctx, missing), domain.ErrTransactionNotFound)
}

func TestDailyTotal(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	for _, amount := range []int64{10000, 25000} {
		tx, err := domain.NewWithdrawal(domain.NewMoney(amount, currencypkg.USD), "acc-1", "ref")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, tx))
	}

	// A transfer must not count towards the withdrawal total.
	transfer, err := domain.NewTransfer(domain.NewMoney(7000, currencypkg.USD), "acc-1", "acc-2", "ref")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, transfer))

	total, err := repo.DailyTotal(ctx, "acc-1", domain.Withdrawal, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(35000), total)

	transferTotal, err := repo.DailyTotal(ctx, "acc-1", domain.Transfer, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(7000), transferTotal)

	yesterday, err := repo.DailyTotal(ctx, "acc-1", domain.Withdrawal, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Zero(t, yesterday)
}

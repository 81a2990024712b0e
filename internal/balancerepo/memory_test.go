package balancerepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/currencypkg"
)

func TestUpdateOptimisticLocking(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	_, err := repo.Init(ctx, "acc-1", currencypkg.USD)
	require.NoError(t, err)

	// Two readers pick up the same version.
	first, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)

	first.Ledger = domain.NewMoney(10000, currencypkg.USD)
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Version)
	require.Equal(t, domain.NewMoney(10000, currencypkg.USD), updated.Available)

	second.Ledger = domain.NewMoney(5000, currencypkg.USD)
	_, err = repo.Update(ctx, second)
	require.ErrorIs(t, err, domain.ErrStaleBalanceVersion)

	// The winner's write survives.
	current, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, domain.NewMoney(10000, currencypkg.USD), current.Ledger)
}

func TestUpdateRestoresAvailableInvariant(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	_, err := repo.Init(ctx, "acc-1", currencypkg.USD)
	require.NoError(t, err)

	b, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)

	b.Ledger = domain.NewMoney(100000, currencypkg.USD)
	b.Pending = domain.NewMoney(5000, currencypkg.USD)

	updated, err := repo.Update(ctx, b)
	require.NoError(t, err)
	require.Equal(t, domain.NewMoney(95000, currencypkg.USD), updated.Available)
}

func TestHolds(t *testing.T) {
	repo := NewRepoMem()
	ctx := context.Background()

	_, err := repo.Init(ctx, "acc-1", currencypkg.USD)
	require.NoError(t, err)

	b, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)
	b.Ledger = domain.NewMoney(100000, currencypkg.USD)
	_, err = repo.Update(ctx, b)
	require.NoError(t, err)

	hold, err := repo.AddHold(ctx, "acc-1", domain.NewMoney(30000, currencypkg.USD), "card authorization")
	require.NoError(t, err)

	held, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.Equal(t, domain.NewMoney(30000, currencypkg.USD), held.Held)
	require.Equal(t, domain.NewMoney(70000, currencypkg.USD), held.Available)

	holds, err := repo.GetHolds(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, holds, 1)

	require.NoError(t, repo.RemoveHold(ctx, "acc-1", hold.ID))

	released, err := repo.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, released.Held.IsZero())
	require.Equal(t, domain.NewMoney(100000, currencypkg.USD), released.Available)
}

func TestGetUnknownAccount(t *testing.T) {
	repo := NewRepoMem()

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrBalanceNotFound)
}

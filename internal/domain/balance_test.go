package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/pkg/currencypkg"
)

func TestBalanceRecalculate(t *testing.T) {
	b := NewBalance("acc-1", currencypkg.USD)
	b.Ledger = NewMoney(100000, currencypkg.USD)
	b.Held = NewMoney(15000, currencypkg.USD)
	b.Pending = NewMoney(5000, currencypkg.USD)

	b.Recalculate()

	require.Equal(t, NewMoney(80000, currencypkg.USD), b.Available)
}

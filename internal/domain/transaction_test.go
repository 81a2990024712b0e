package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finvault/corebank/pkg/currencypkg"
)

func testAmount() Money {
	return NewMoney(15000, currencypkg.USD)
}

func TestConstructorValidation(t *testing.T) {
	testCases := []struct {
		name      string
		construct func() (Transaction, error)
		wantField string
	}{
		{
			name: "Transfer without source",
			construct: func() (Transaction, error) {
				return NewTransfer(testAmount(), "", "acc-2", "ref-1")
			},
			wantField: "source_account_id",
		},
		{
			name: "Transfer to itself",
			construct: func() (Transaction, error) {
				return NewTransfer(testAmount(), "acc-1", "acc-1", "ref-1")
			},
			wantField: "destination_account_id",
		},
		{
			name: "Deposit without destination",
			construct: func() (Transaction, error) {
				return NewDeposit(testAmount(), "", "ref-1")
			},
			wantField: "destination_account_id",
		},
		{
			name: "Withdrawal without source",
			construct: func() (Transaction, error) {
				return NewWithdrawal(testAmount(), "", "ref-1")
			},
			wantField: "source_account_id",
		},
		{
			name: "Payment without source",
			construct: func() (Transaction, error) {
				return NewPayment(testAmount(), "", "EXPENSE", "ref-1")
			},
			wantField: "source_account_id",
		},
		{
			name: "Negative amount",
			construct: func() (Transaction, error) {
				return NewDeposit(NewMoney(-100, currencypkg.USD), "acc-1", "ref-1")
			},
			wantField: "amount",
		},
		{
			name: "Empty reference",
			construct: func() (Transaction, error) {
				return NewDeposit(testAmount(), "acc-1", "")
			},
			wantField: "reference",
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.construct()
			require.ErrorIs(t, err, ErrValidationFailed)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)

			fields := make([]string, 0, len(vErr.Violations))
			for _, v := range vErr.Violations {
				fields = append(fields, v.Field)
			}

			require.Contains(t, fields, tc.wantField)
		})
	}
}

func TestConstructorDefaults(t *testing.T) {
	tx, err := NewTransfer(testAmount(), "acc-1", "acc-2", "ref-1")
	require.NoError(t, err)

	require.NotEmpty(t, tx.ID)
	require.Equal(t, Transfer, tx.Type)
	require.Equal(t, StatusPending, tx.Status)
	require.Equal(t, "acc-1", tx.SourceAccountID)
	require.Equal(t, "acc-2", tx.DestinationAccountID)
	require.Nil(t, tx.CompletedAt)
}

func TestStateMachine(t *testing.T) {
	testCases := []struct {
		name    string
		from    TransactionStatus
		mutate  func(*Transaction) error
		want    TransactionStatus
		wantErr bool
	}{
		{name: "Pending to Processing", from: StatusPending, mutate: (*Transaction).MarkProcessing, want: StatusProcessing},
		{name: "Processing to Completed", from: StatusProcessing, mutate: (*Transaction).MarkCompleted, want: StatusCompleted},
		{name: "Processing to OnHold", from: StatusProcessing, mutate: (*Transaction).MarkOnHold, want: StatusOnHold},
		{name: "OnHold to Processing", from: StatusOnHold, mutate: (*Transaction).MarkProcessing, want: StatusProcessing},
		{
			name: "Processing to Failed",
			from: StatusProcessing,
			mutate: func(tx *Transaction) error {
				return tx.MarkFailed("posting failed")
			},
			want: StatusFailed,
		},
		{
			name: "OnHold to Rejected",
			from: StatusOnHold,
			mutate: func(tx *Transaction) error {
				return tx.MarkRejected("manual review declined")
			},
			want: StatusRejected,
		},
		{
			name: "Completed to Reversed",
			from: StatusCompleted,
			mutate: func(tx *Transaction) error {
				return tx.MarkReversed("rev-1")
			},
			want: StatusReversed,
		},
		{name: "Pending to Completed is illegal", from: StatusPending, mutate: (*Transaction).MarkCompleted, wantErr: true},
		{name: "Completed to Processing is illegal", from: StatusCompleted, mutate: (*Transaction).MarkProcessing, wantErr: true},
		{name: "Failed is terminal", from: StatusFailed, mutate: (*Transaction).MarkProcessing, wantErr: true},
		{name: "Reversed is terminal", from: StatusReversed, mutate: (*Transaction).MarkProcessing, wantErr: true},
		{name: "Rejected is terminal", from: StatusRejected, mutate: (*Transaction).MarkProcessing, wantErr: true},
		{name: "Pending to OnHold is illegal", from: StatusPending, mutate: (*Transaction).MarkOnHold, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			tx, err := NewTransfer(testAmount(), "acc-1", "acc-2", "ref-1")
			require.NoError(t, err)

			tx.Status = tc.from

			err = tc.mutate(&tx)

			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransactionState)

				var sErr *StateTransitionError
				require.ErrorAs(t, err, &sErr)
				require.Equal(t, tc.from, sErr.Current)

				// Status never changes on an illegal transition.
				require.Equal(t, tc.from, tx.Status)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, tx.Status)
		})
	}
}

func TestMarkCompletedStampsCompletedAt(t *testing.T) {
	tx, err := NewDeposit(testAmount(), "acc-1", "ref-1")
	require.NoError(t, err)

	require.NoError(t, tx.MarkProcessing())
	require.NoError(t, tx.MarkCompleted())

	require.NotNil(t, tx.CompletedAt)
	require.WithinDuration(t, time.Now(), *tx.CompletedAt, time.Minute)
}

func TestCheckReversible(t *testing.T) {
	window := 30 * 24 * time.Hour

	completed := func() Transaction {
		tx, err := NewTransfer(testAmount(), "acc-1", "acc-2", "ref-1")
		require.NoError(t, err)
		require.NoError(t, tx.MarkProcessing())
		require.NoError(t, tx.MarkCompleted())

		return tx
	}

	t.Run("Completed within window", func(t *testing.T) {
		tx := completed()
		require.True(t, tx.IsReversible(window))
	})

	t.Run("Not completed", func(t *testing.T) {
		tx, err := NewTransfer(testAmount(), "acc-1", "acc-2", "ref-1")
		require.NoError(t, err)

		err = tx.CheckReversible(window)
		require.ErrorIs(t, err, ErrTransactionNotReversible)

		var nrErr *NotReversibleError
		require.ErrorAs(t, err, &nrErr)
		require.Contains(t, nrErr.Reason, "PENDING")
	})

	t.Run("Already reversed", func(t *testing.T) {
		tx := completed()
		tx.ReversalTransactionID = "rev-1"

		require.ErrorIs(t, tx.CheckReversible(window), ErrTransactionNotReversible)
	})

	t.Run("Reversal of a reversal", func(t *testing.T) {
		tx := completed()
		tx.Type = Reversal

		require.ErrorIs(t, tx.CheckReversible(window), ErrTransactionNotReversible)
	})

	t.Run("Window elapsed", func(t *testing.T) {
		tx := completed()
		old := time.Now().UTC().Add(-31 * 24 * time.Hour)
		tx.CompletedAt = &old

		err := tx.CheckReversible(window)
		require.ErrorIs(t, err, ErrTransactionNotReversible)

		var nrErr *NotReversibleError
		require.ErrorAs(t, err, &nrErr)
		require.Contains(t, nrErr.Reason, "window")
	})
}

func TestNewReversalSwapsAccounts(t *testing.T) {
	original, err := NewTransfer(testAmount(), "acc-1", "acc-2", "ref-1")
	require.NoError(t, err)

	rev, err := NewReversal(original, "reversal of ref-1")
	require.NoError(t, err)

	require.Equal(t, Reversal, rev.Type)
	require.Equal(t, original.ID, rev.OriginalTransactionID)
	require.Equal(t, "acc-2", rev.SourceAccountID)
	require.Equal(t, "acc-1", rev.DestinationAccountID)
	require.Equal(t, original.Amount, rev.Amount)
}

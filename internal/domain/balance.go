package domain

import "time"

// Balance holds the balance figures for one account.
//
// Available is always Ledger minus Held minus Pending. Version is the
// optimistic concurrency token: every write must carry the version it read,
// and the store rejects stale versions with ErrStaleBalanceVersion.
type Balance struct {
	AccountID string    `json:"account_id"`
	Ledger    Money     `json:"ledger_balance"`
	Available Money     `json:"available_balance"`
	Held      Money     `json:"held_balance"`
	Pending   Money     `json:"pending_balance"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBalance returns a zero balance for the account in the given currency.
func NewBalance(accountID, currency string) Balance {
	zero := NewMoney(0, currency)

	return Balance{
		AccountID: accountID,
		Ledger:    zero,
		Available: zero,
		Held:      zero,
		Pending:   zero,
		UpdatedAt: time.Now().UTC(),
	}
}

// Recalculate restores the available-balance invariant after a mutation.
func (b *Balance) Recalculate() {
	b.Available = Money{
		Amount:   b.Ledger.Amount - b.Held.Amount - b.Pending.Amount,
		Currency: b.Ledger.Currency,
	}
}

// Hold is an amount reserved against an account's available balance.
type Hold struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    Money     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

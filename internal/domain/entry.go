package domain

import "time"

// EntryType distinguishes the two legs of a posting.
type EntryType string

// Entry types. Customer accounts follow the asset convention:
// a debit increases the account, a credit decreases it.
const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// Entry is one leg of a posting against one account.
// Entries are immutable once appended; corrections are made by
// appending offsetting entries, never by editing history.
type Entry struct {
	ID             string    `json:"id"`
	TransactionID  string    `json:"transaction_id"`
	AccountID      string    `json:"account_id"`
	Type           EntryType `json:"entry_type"`
	Amount         Money     `json:"amount"`
	RunningBalance Money     `json:"running_balance"`
	Description    string    `json:"description"`
	Sequence       int64     `json:"sequence"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signed returns the entry amount with the sign of its effect on the
// account: positive for debits, negative for credits.
func (e Entry) Signed() Money {
	if e.Type == Debit {
		return e.Amount
	}

	return e.Amount.Negate()
}

// Validate checks that the entry is well formed before it reaches the store.
func (e Entry) Validate() error {
	var violations []Violation

	if e.TransactionID == "" {
		violations = append(violations, Violation{Code: "required", Field: "transaction_id", Message: "transaction id is required"})
	}

	if e.AccountID == "" {
		violations = append(violations, Violation{Code: "required", Field: "account_id", Message: "account id is required"})
	}

	if e.Type != Debit && e.Type != Credit {
		violations = append(violations, Violation{Code: "invalid", Field: "entry_type", Message: "entry type must be DEBIT or CREDIT"})
	}

	if !e.Amount.IsPositive() {
		violations = append(violations, Violation{Code: "invalid", Field: "amount", Message: "entry amount must be positive"})
	}

	if e.Amount.Currency == "" {
		violations = append(violations, Violation{Code: "required", Field: "currency", Message: "currency is required"})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	return nil
}

// AccountBalance is the ledger-derived balance breakdown for one account.
type AccountBalance struct {
	AccountID   string `json:"account_id"`
	DebitTotal  Money  `json:"debit_total"`
	CreditTotal Money  `json:"credit_total"`
	Net         Money  `json:"net"`
}

// Reconciliation is the result of an account self-check: the expected net
// recomputed from signed entry amounts against the ledger-derived balance.
type Reconciliation struct {
	AccountID   string `json:"account_id"`
	Expected    Money  `json:"expected"`
	Actual      Money  `json:"actual"`
	Discrepancy Money  `json:"discrepancy"`
	IsBalanced  bool   `json:"is_balanced"`
}

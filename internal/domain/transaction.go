package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates the supported business operations.
type TransactionType string

// All transaction types.
const (
	Transfer   TransactionType = "TRANSFER"
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Payment    TransactionType = "PAYMENT"
	Fee        TransactionType = "FEE"
	Interest   TransactionType = "INTEREST"
	Adjustment TransactionType = "ADJUSTMENT"
	Reversal   TransactionType = "REVERSAL"
)

// TransactionStatus enumerates the state machine states.
type TransactionStatus string

// All transaction statuses. Failed, Rejected and Reversed are terminal.
const (
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusFailed     TransactionStatus = "FAILED"
	StatusOnHold     TransactionStatus = "ON_HOLD"
	StatusRejected   TransactionStatus = "REJECTED"
	StatusReversed   TransactionStatus = "REVERSED"
)

// transitions is the fixed state machine table. Every mutator goes
// through it; there is no other way to change a transaction's status.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusOnHold},
	StatusOnHold:     {StatusProcessing, StatusRejected},
	StatusCompleted:  {StatusReversed},
}

// Transaction is one business operation, independent of its ledger postings.
// It is created and mutated only through the constructors and Mark* methods.
type Transaction struct {
	ID                    string            `json:"id"`
	Type                  TransactionType   `json:"type"`
	Amount                Money             `json:"amount"`
	SourceAccountID       string            `json:"source_account_id,omitempty"`
	DestinationAccountID  string            `json:"destination_account_id,omitempty"`
	Status                TransactionStatus `json:"status"`
	Reference             string            `json:"reference"`
	IdempotencyKey        string            `json:"idempotency_key,omitempty"`
	OriginalTransactionID string            `json:"original_transaction_id,omitempty"`
	ReversalTransactionID string            `json:"reversal_transaction_id,omitempty"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
}

func newTransaction(txType TransactionType, amount Money, reference string) (Transaction, []Violation) {
	var violations []Violation

	if !amount.IsPositive() {
		violations = append(violations, Violation{Code: "invalid", Field: "amount", Message: "amount must be positive"})
	}

	if reference == "" {
		violations = append(violations, Violation{Code: "required", Field: "reference", Message: "reference is required"})
	}

	now := time.Now().UTC()

	return Transaction{
		ID:        uuid.NewString(),
		Type:      txType,
		Amount:    amount,
		Status:    StatusPending,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
	}, violations
}

// NewTransfer creates a Pending transfer between two distinct accounts.
func NewTransfer(amount Money, sourceID, destinationID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Transfer, amount, reference)

	if sourceID == "" {
		violations = append(violations, Violation{Code: "required", Field: "source_account_id", Message: "transfer requires a source account"})
	}

	if destinationID == "" {
		violations = append(violations, Violation{Code: "required", Field: "destination_account_id", Message: "transfer requires a destination account"})
	}

	if sourceID != "" && sourceID == destinationID {
		violations = append(violations, Violation{Code: "invalid", Field: "destination_account_id", Message: "source and destination must differ"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.SourceAccountID = sourceID
	tx.DestinationAccountID = destinationID

	return tx, nil
}

// NewDeposit creates a Pending deposit into the destination account.
func NewDeposit(amount Money, destinationID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Deposit, amount, reference)

	if destinationID == "" {
		violations = append(violations, Violation{Code: "required", Field: "destination_account_id", Message: "deposit requires a destination account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.DestinationAccountID = destinationID

	return tx, nil
}

// NewWithdrawal creates a Pending withdrawal from the source account.
func NewWithdrawal(amount Money, sourceID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Withdrawal, amount, reference)

	if sourceID == "" {
		violations = append(violations, Violation{Code: "required", Field: "source_account_id", Message: "withdrawal requires a source account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.SourceAccountID = sourceID

	return tx, nil
}

// NewPayment creates a Pending payment from the source account, optionally
// naming the expense account it settles against.
func NewPayment(amount Money, sourceID, destinationID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Payment, amount, reference)

	if sourceID == "" {
		violations = append(violations, Violation{Code: "required", Field: "source_account_id", Message: "payment requires a source account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.SourceAccountID = sourceID
	tx.DestinationAccountID = destinationID

	return tx, nil
}

// NewFee creates a Pending fee charged to the source account.
func NewFee(amount Money, sourceID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Fee, amount, reference)

	if sourceID == "" {
		violations = append(violations, Violation{Code: "required", Field: "source_account_id", Message: "fee requires a source account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.SourceAccountID = sourceID

	return tx, nil
}

// NewInterest creates a Pending interest credit to the destination account.
func NewInterest(amount Money, destinationID, reference string) (Transaction, error) {
	tx, violations := newTransaction(Interest, amount, reference)

	if destinationID == "" {
		violations = append(violations, Violation{Code: "required", Field: "destination_account_id", Message: "interest requires a destination account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.DestinationAccountID = destinationID

	return tx, nil
}

// NewAdjustment creates a Pending manual adjustment on one account. The sign
// of amount picks the side: positive debits the account (increasing it),
// negative credits it. The stored transaction amount is always positive; the
// side is encoded by which account reference carries the id.
func NewAdjustment(amount Money, accountID, reference string) (Transaction, error) {
	magnitude := amount
	if magnitude.IsNegative() {
		magnitude = magnitude.Negate()
	}

	tx, violations := newTransaction(Adjustment, magnitude, reference)

	if accountID == "" {
		violations = append(violations, Violation{Code: "required", Field: "account_id", Message: "adjustment requires an account"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	if amount.IsNegative() {
		tx.SourceAccountID = accountID
	} else {
		tx.DestinationAccountID = accountID
	}

	return tx, nil
}

// NewReversal creates a Pending reversal of the original transaction with
// source and destination swapped.
func NewReversal(original Transaction, reference string) (Transaction, error) {
	tx, violations := newTransaction(Reversal, original.Amount, reference)

	if original.ID == "" {
		violations = append(violations, Violation{Code: "required", Field: "original_transaction_id", Message: "reversal requires the original transaction"})
	}

	if len(violations) > 0 {
		return Transaction{}, &ValidationError{Violations: violations}
	}

	tx.OriginalTransactionID = original.ID
	tx.SourceAccountID = original.DestinationAccountID
	tx.DestinationAccountID = original.SourceAccountID

	return tx, nil
}

func (t *Transaction) transition(to TransactionStatus) error {
	for _, allowed := range transitions[t.Status] {
		if allowed == to {
			t.Status = to
			t.UpdatedAt = time.Now().UTC()

			return nil
		}
	}

	return &StateTransitionError{TransactionID: t.ID, Current: t.Status, Requested: to}
}

// MarkProcessing moves the transaction into Processing.
func (t *Transaction) MarkProcessing() error {
	return t.transition(StatusProcessing)
}

// MarkCompleted moves the transaction into Completed and stamps CompletedAt.
func (t *Transaction) MarkCompleted() error {
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}

	now := time.Now().UTC()
	t.CompletedAt = &now

	return nil
}

// MarkFailed moves the transaction into Failed with the captured reason.
func (t *Transaction) MarkFailed(reason string) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}

	t.FailureReason = reason

	return nil
}

// MarkOnHold moves the transaction into OnHold.
func (t *Transaction) MarkOnHold() error {
	return t.transition(StatusOnHold)
}

// MarkRejected moves the transaction into Rejected with the captured reason.
func (t *Transaction) MarkRejected(reason string) error {
	if err := t.transition(StatusRejected); err != nil {
		return err
	}

	t.FailureReason = reason

	return nil
}

// MarkReversed moves the transaction into Reversed with a back-reference
// to the reversal transaction.
func (t *Transaction) MarkReversed(reversalID string) error {
	if err := t.transition(StatusReversed); err != nil {
		return err
	}

	t.ReversalTransactionID = reversalID

	return nil
}

// IsFinal reports whether the transaction reached a settled state.
func (t Transaction) IsFinal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusReversed, StatusRejected:
		return true
	}

	return false
}

// CheckReversible returns nil if the transaction can be reversed, or a
// NotReversibleError naming the specific blocking reason.
func (t Transaction) CheckReversible(window time.Duration) error {
	switch {
	case t.Status != StatusCompleted:
		return &NotReversibleError{TransactionID: t.ID, Reason: fmt.Sprintf("status is %s, only COMPLETED transactions can be reversed", t.Status)}
	case t.ReversalTransactionID != "":
		return &NotReversibleError{TransactionID: t.ID, Reason: "transaction has already been reversed"}
	case t.Type == Reversal:
		return &NotReversibleError{TransactionID: t.ID, Reason: "a reversal cannot itself be reversed"}
	case t.CompletedAt == nil || time.Since(*t.CompletedAt) > window:
		return &NotReversibleError{TransactionID: t.ID, Reason: fmt.Sprintf("reversal window of %s has elapsed", window)}
	}

	return nil
}

// IsReversible reports whether CheckReversible would pass.
func (t Transaction) IsReversible(window time.Duration) bool {
	return t.CheckReversible(window) == nil
}

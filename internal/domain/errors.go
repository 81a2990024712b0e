package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is. Structured error types below wrap
// these so callers can branch on the kind while still reading the details.
var (
	// ErrCurrencyMismatch indicates arithmetic or comparison between different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidAmount indicates a malformed or out-of-scale amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientFunds indicates that the available balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInactive indicates that the account status forbids the operation.
	ErrAccountInactive = errors.New("account inactive")
	// ErrBalanceNotFound indicates that no balance record exists for the account.
	ErrBalanceNotFound = errors.New("balance not found")
	// ErrStaleBalanceVersion indicates an optimistic concurrency conflict on a balance write.
	ErrStaleBalanceVersion = errors.New("stale balance version")
	// ErrTransactionNotFound indicates that the transaction is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionAlreadyProcessed indicates an idempotency key replay of a non-final transaction.
	ErrTransactionAlreadyProcessed = errors.New("transaction already processed")
	// ErrDoubleEntryViolation indicates an unbalanced debit/credit pair.
	ErrDoubleEntryViolation = errors.New("double-entry violation")
	// ErrInvalidTransactionState indicates an illegal state machine transition.
	ErrInvalidTransactionState = errors.New("invalid transaction state")
	// ErrTransactionNotReversible indicates that the transaction cannot be reversed.
	ErrTransactionNotReversible = errors.New("transaction not reversible")
	// ErrValidationFailed indicates one or more input violations.
	ErrValidationFailed = errors.New("validation failed")
	// ErrEntryImmutable indicates an attempt to modify an appended ledger entry.
	ErrEntryImmutable = errors.New("ledger entries are immutable")
)

// Violation is a single field-level validation failure.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all violations found for one request.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// DoubleEntryError reports an unbalanced or malformed debit/credit pair.
type DoubleEntryError struct {
	TransactionID string
	Reason        string
}

func (e *DoubleEntryError) Error() string {
	return fmt.Sprintf("double-entry violation for transaction %s: %s", e.TransactionID, e.Reason)
}

func (e *DoubleEntryError) Unwrap() error {
	return ErrDoubleEntryViolation
}

// StateTransitionError names the current and the requested status of an
// illegal transition. The transaction status is left unchanged.
type StateTransitionError struct {
	TransactionID string
	Current       TransactionStatus
	Requested     TransactionStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("transaction %s: illegal transition %s -> %s", e.TransactionID, e.Current, e.Requested)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidTransactionState
}

// NotReversibleError carries the specific reason blocking a reversal.
type NotReversibleError struct {
	TransactionID string
	Reason        string
}

func (e *NotReversibleError) Error() string {
	return fmt.Sprintf("transaction %s is not reversible: %s", e.TransactionID, e.Reason)
}

func (e *NotReversibleError) Unwrap() error {
	return ErrTransactionNotReversible
}

// ErrorCode maps an error to its stable machine-readable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrInvalidAmount):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrDoubleEntryViolation):
		return "DOUBLE_ENTRY_VIOLATION"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrAccountInactive):
		return "ACCOUNT_INACTIVE"
	case errors.Is(err, ErrInvalidTransactionState):
		return "INVALID_TRANSACTION_STATE"
	case errors.Is(err, ErrTransactionAlreadyProcessed):
		return "TRANSACTION_ALREADY_PROCESSED"
	case errors.Is(err, ErrTransactionNotReversible):
		return "TRANSACTION_NOT_REVERSIBLE"
	case errors.Is(err, ErrCurrencyMismatch):
		return "CURRENCY_MISMATCH"
	case errors.Is(err, ErrStaleBalanceVersion):
		return "STALE_BALANCE_VERSION"
	case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrBalanceNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// ValidationResult aggregates every violation found for one flow. Checks
// never short-circuit: the caller receives the complete set in one pass.
type ValidationResult struct {
	IsValid    bool        `json:"is_valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// NewValidationResult builds a result from the collected violations.
func NewValidationResult(violations []Violation) ValidationResult {
	return ValidationResult{IsValid: len(violations) == 0, Violations: violations}
}

// Err returns nil for a valid result, or a ValidationError carrying the
// full violation list.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	return &ValidationError{Violations: r.Violations}
}

// Has reports whether the result contains a violation with the given code.
func (r ValidationResult) Has(code string) bool {
	for _, v := range r.Violations {
		if v.Code == code {
			return true
		}
	}

	return false
}

// Package transactionvalidator holds the pure validation logic consumed by
// the transaction processor. Every check reads but never writes, and every
// flow collects all violations instead of stopping at the first.
package transactionvalidator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finvault/corebank/internal/domain"
	"github.com/finvault/corebank/pkg/currencypkg"
)

// Violation codes produced by this package.
const (
	CodeAmountNotPositive   = "amount_not_positive"
	CodeAmountExceedsLimit  = "amount_exceeds_limit"
	CodeCurrencyUnsupported = "currency_unsupported"
	CodeCurrencyMismatch    = "currency_mismatch"
	CodeAccountNotFound     = "account_not_found"
	CodeAccountInactive     = "account_inactive"
	CodeInsufficientFunds   = "insufficient_funds"
	CodeDailyLimitExceeded  = "daily_limit_exceeded"
)

// AccountGetter provides read access to accounts.
//
//go:generate mockgen -source validator.go -destination validator_mock.go -package transactionvalidator
type AccountGetter interface {
	Get(ctx context.Context, id string) (domain.Account, error)
}

// BalanceGetter provides read access to balances.
type BalanceGetter interface {
	Get(ctx context.Context, accountID string) (domain.Balance, error)
}

// DailyTotals provides read access to per-account daily transaction totals.
type DailyTotals interface {
	DailyTotal(ctx context.Context, accountID string, txType domain.TransactionType, day time.Time) (int64, error)
}

// Limits holds the product-defined ceilings, in minor units.
type Limits struct {
	MaxTransactionAmount int64
	DailyTransferLimit   int64
	DailyWithdrawalLimit int64
}

// Validator runs the per-flow validation checks.
type Validator struct {
	accounts AccountGetter
	balances BalanceGetter
	totals   DailyTotals
	limits   Limits
}

// New returns a validator over the given read-only collaborators.
func New(accounts AccountGetter, balances BalanceGetter, totals DailyTotals, limits Limits) *Validator {
	return &Validator{accounts: accounts, balances: balances, totals: totals, limits: limits}
}

// checkAmount validates the amount in isolation.
func (v *Validator) checkAmount(amount domain.Money, violations []domain.Violation) []domain.Violation {
	if !amount.IsPositive() {
		violations = append(violations, domain.Violation{
			Code: CodeAmountNotPositive, Field: "amount", Message: "amount must be positive",
		})
	}

	if !currencypkg.IsSupportedCurrency(amount.Currency) {
		violations = append(violations, domain.Violation{
			Code: CodeCurrencyUnsupported, Field: "currency", Message: fmt.Sprintf("currency %q is not supported", amount.Currency),
		})
	}

	if v.limits.MaxTransactionAmount > 0 && amount.Amount > v.limits.MaxTransactionAmount {
		violations = append(violations, domain.Violation{
			Code:    CodeAmountExceedsLimit,
			Field:   "amount",
			Message: fmt.Sprintf("amount %s exceeds the per-transaction ceiling", amount),
		})
	}

	return violations
}

// checkAccount loads the account and validates status and currency for the
// requested role. The returned account is zero-valued when not found.
func (v *Validator) checkAccount(ctx context.Context, id, field string, amount domain.Money, sending bool, violations []domain.Violation) (domain.Account, []domain.Violation, error) {
	account, err := v.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			violations = append(violations, domain.Violation{
				Code: CodeAccountNotFound, Field: field, Message: fmt.Sprintf("account %s does not exist", id),
			})

			return domain.Account{}, violations, nil
		}

		return domain.Account{}, violations, err
	}

	eligible := account.CanReceive()
	if sending {
		eligible = account.CanSend()
	}

	if !eligible {
		violations = append(violations, domain.Violation{
			Code: CodeAccountInactive, Field: field, Message: fmt.Sprintf("account %s is %s", id, account.Status),
		})
	}

	if account.Currency != amount.Currency {
		violations = append(violations, domain.Violation{
			Code:    CodeCurrencyMismatch,
			Field:   field,
			Message: fmt.Sprintf("account %s holds %s, amount is %s", id, account.Currency, amount.Currency),
		})
	}

	return account, violations, nil
}

// checkFunds verifies that the available balance, extended by the account's
// overdraft limit, covers the amount.
func (v *Validator) checkFunds(ctx context.Context, account domain.Account, amount domain.Money, violations []domain.Violation) ([]domain.Violation, error) {
	if account.ID == "" || account.Currency != amount.Currency {
		// Account missing or wrong currency is already reported; a funds
		// check would only produce noise.
		return violations, nil
	}

	balance, err := v.balances.Get(ctx, account.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			balance = domain.NewBalance(account.ID, account.Currency)
		} else {
			return violations, err
		}
	}

	spendable := balance.Available.Amount + account.OverdraftLimit.Amount
	if spendable < amount.Amount {
		violations = append(violations, domain.Violation{
			Code:    CodeInsufficientFunds,
			Field:   "amount",
			Message: fmt.Sprintf("available %s does not cover %s", balance.Available, amount),
		})
	}

	return violations, nil
}

// checkDailyLimit verifies the account's cumulative total for the type today
// stays within the configured ceiling after this amount.
func (v *Validator) checkDailyLimit(ctx context.Context, accountID string, txType domain.TransactionType, amount domain.Money, limit int64, violations []domain.Violation) ([]domain.Violation, error) {
	if limit <= 0 {
		return violations, nil
	}

	total, err := v.totals.DailyTotal(ctx, accountID, txType, time.Now().UTC())
	if err != nil {
		return violations, err
	}

	if total+amount.Amount > limit {
		violations = append(violations, domain.Violation{
			Code:    CodeDailyLimitExceeded,
			Field:   "amount",
			Message: fmt.Sprintf("daily %s limit exceeded", txType),
		})
	}

	return violations, nil
}

// ValidateTransfer runs every transfer check and returns the complete set of
// violations.
func (v *Validator) ValidateTransfer(ctx context.Context, sourceID, destinationID string, amount domain.Money) (domain.ValidationResult, error) {
	var violations []domain.Violation

	violations = v.checkAmount(amount, violations)

	source, violations, err := v.checkAccount(ctx, sourceID, "source_account_id", amount, true, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	_, violations, err = v.checkAccount(ctx, destinationID, "destination_account_id", amount, false, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	violations, err = v.checkFunds(ctx, source, amount, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	violations, err = v.checkDailyLimit(ctx, sourceID, domain.Transfer, amount, v.limits.DailyTransferLimit, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.NewValidationResult(violations), nil
}

// ValidateDeposit runs every deposit check.
func (v *Validator) ValidateDeposit(ctx context.Context, destinationID string, amount domain.Money) (domain.ValidationResult, error) {
	var violations []domain.Violation

	violations = v.checkAmount(amount, violations)

	_, violations, err := v.checkAccount(ctx, destinationID, "destination_account_id", amount, false, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.NewValidationResult(violations), nil
}

// ValidateWithdrawal runs every withdrawal check, including the daily
// withdrawal ceiling.
func (v *Validator) ValidateWithdrawal(ctx context.Context, sourceID string, amount domain.Money) (domain.ValidationResult, error) {
	var violations []domain.Violation

	violations = v.checkAmount(amount, violations)

	source, violations, err := v.checkAccount(ctx, sourceID, "source_account_id", amount, true, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	violations, err = v.checkFunds(ctx, source, amount, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	violations, err = v.checkDailyLimit(ctx, sourceID, domain.Withdrawal, amount, v.limits.DailyWithdrawalLimit, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.NewValidationResult(violations), nil
}

// ValidateDebitFlow covers payments and fees: an amount leaving the source
// account with no daily ceiling of its own.
func (v *Validator) ValidateDebitFlow(ctx context.Context, sourceID string, amount domain.Money) (domain.ValidationResult, error) {
	var violations []domain.Violation

	violations = v.checkAmount(amount, violations)

	source, violations, err := v.checkAccount(ctx, sourceID, "source_account_id", amount, true, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	violations, err = v.checkFunds(ctx, source, amount, violations)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	return domain.NewValidationResult(violations), nil
}

// ValidateCreditFlow covers interest and positive adjustments: an amount
// entering the destination account.
func (v *Validator) ValidateCreditFlow(ctx context.Context, destinationID string, amount domain.Money) (domain.ValidationResult, error) {
	return v.ValidateDeposit(ctx, destinationID, amount)
}

// Package transactionservice manages business logic layer of transaction
// processing: idempotency, validation, the state machine walk, balance
// posting and rollback, and reversals.
package transactionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/auditlog"
	"github.com/finvault/corebank/internal/domain"
)

// TransactionStore provides the persistence interface needed by the processor.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type TransactionStore interface {
	Save(ctx context.Context, tx domain.Transaction) error
	Update(ctx context.Context, tx domain.Transaction) error
	Get(ctx context.Context, id string) (domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (domain.Transaction, error)
}

// Poster provides the ledger posting interface needed by the processor.
type Poster interface {
	PostTransaction(ctx context.Context, tx domain.Transaction) ([]domain.Entry, error)
	Rollback(ctx context.Context, transactionID string) error
}

// Validator provides the pure validation interface needed by the processor.
type Validator interface {
	ValidateTransfer(ctx context.Context, sourceID, destinationID string, amount domain.Money) (domain.ValidationResult, error)
	ValidateDeposit(ctx context.Context, destinationID string, amount domain.Money) (domain.ValidationResult, error)
	ValidateWithdrawal(ctx context.Context, sourceID string, amount domain.Money) (domain.ValidationResult, error)
	ValidateDebitFlow(ctx context.Context, sourceID string, amount domain.Money) (domain.ValidationResult, error)
	ValidateCreditFlow(ctx context.Context, destinationID string, amount domain.Money) (domain.ValidationResult, error)
}

// ProcessingError wraps the primary posting failure with the rollback
// outcome, so operators can tell "rolled back cleanly" from "rollback also
// failed and the ledger may need manual reconciliation".
type ProcessingError struct {
	TransactionID string
	RollbackClean bool
	Err           error
}

func (e *ProcessingError) Error() string {
	outcome := "rolled back cleanly"
	if !e.RollbackClean {
		outcome = "rollback also failed"
	}

	return fmt.Sprintf("processing transaction %s failed (%s): %v", e.TransactionID, outcome, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Service orchestrates the full transaction lifecycle.
type Service struct {
	txs            TransactionStore
	poster         Poster
	validator      Validator
	audit          auditlog.Logger
	reversalWindow time.Duration
}

// New returns a transaction processor. reversalWindow is the single
// canonical window within which a completed transaction may be reversed.
func New(txs TransactionStore, poster Poster, validator Validator, audit auditlog.Logger, reversalWindow time.Duration) *Service {
	return &Service{
		txs:            txs,
		poster:         poster,
		validator:      validator,
		audit:          audit,
		reversalWindow: reversalWindow,
	}
}

// Params carries the caller input shared by all processing flows.
type Params struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               domain.Money
	Reference            string
	IdempotencyKey       string
}

// replay resolves an idempotency key. A prior final transaction is returned
// as-is; a prior in-flight one fails fast without re-executing postings.
func (s *Service) replay(ctx context.Context, key string) (domain.Transaction, bool, error) {
	if key == "" {
		return domain.Transaction{}, false, nil
	}

	prior, err := s.txs.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return domain.Transaction{}, false, nil
		}

		return domain.Transaction{}, false, err
	}

	if prior.IsFinal() {
		return prior, true, nil
	}

	return prior, true, domain.ErrTransactionAlreadyProcessed
}

func (s *Service) persistStatus(ctx context.Context, tx domain.Transaction, event string) error {
	if err := s.txs.Update(ctx, tx); err != nil {
		return err
	}

	s.audit.Event(ctx, event, map[string]interface{}{
		"transaction_id": tx.ID,
		"type":           tx.Type,
		"status":         tx.Status,
		"amount":         tx.Amount.String(),
	})

	return nil
}

// run drives a validated Pending transaction through persistence, posting
// and completion. Steps are strictly sequential; a posting failure takes
// the rollback-then-fail path and re-raises the original error.
func (s *Service) run(ctx context.Context, tx domain.Transaction, idemKey string) (domain.Transaction, error) {
	tx.IdempotencyKey = idemKey

	if err := s.txs.Save(ctx, tx); err != nil {
		return domain.Transaction{}, err
	}

	s.audit.Event(ctx, "transaction.created", map[string]interface{}{
		"transaction_id": tx.ID,
		"type":           tx.Type,
		"amount":         tx.Amount.String(),
	})

	if err := tx.MarkProcessing(); err != nil {
		return tx, err
	}

	if err := s.persistStatus(ctx, tx, "transaction.processing"); err != nil {
		return tx, err
	}

	if _, err := s.poster.PostTransaction(ctx, tx); err != nil {
		return s.fail(ctx, tx, err)
	}

	if err := tx.MarkCompleted(); err != nil {
		return s.fail(ctx, tx, err)
	}

	if err := s.persistStatus(ctx, tx, "transaction.completed"); err != nil {
		return tx, err
	}

	return tx, nil
}

// fail rolls back whatever was posted for the transaction, marks it Failed
// with the captured reason, and re-raises the primary cause. A rollback
// failure is logged and reported on the result but never masks the cause.
func (s *Service) fail(ctx context.Context, tx domain.Transaction, cause error) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rollbackClean := true

	if err := s.poster.Rollback(ctx, tx.ID); err != nil {
		rollbackClean = false
		l.Error().Err(err).Msgf("rollback of transaction %s failed, ledger may need manual reconciliation", tx.ID)
	}

	if err := tx.MarkFailed(cause.Error()); err != nil {
		l.Error().Err(err).Send()
	}

	if err := s.persistStatus(ctx, tx, "transaction.failed"); err != nil {
		l.Error().Err(err).Send()
	}

	return tx, &ProcessingError{TransactionID: tx.ID, RollbackClean: rollbackClean, Err: cause}
}

// ProcessTransfer moves an amount between two customer accounts.
func (s *Service) ProcessTransfer(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateTransfer(ctx, arg.SourceAccountID, arg.DestinationAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewTransfer(arg.Amount, arg.SourceAccountID, arg.DestinationAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// ProcessDeposit credits an amount into the destination account from the
// outside world (or from an explicit source account).
func (s *Service) ProcessDeposit(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateDeposit(ctx, arg.DestinationAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	// An explicit source names a customer account that gets debited, so it
	// goes through the debit-side checks instead of the EXTERNAL shortcut.
	if arg.SourceAccountID != "" {
		sourceResult, err := s.validator.ValidateDebitFlow(ctx, arg.SourceAccountID, arg.Amount)
		if err != nil {
			return domain.Transaction{}, err
		}

		result = domain.NewValidationResult(append(result.Violations, sourceResult.Violations...))
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewDeposit(arg.Amount, arg.DestinationAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx.SourceAccountID = arg.SourceAccountID

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// ProcessWithdrawal debits an amount out of the source account.
func (s *Service) ProcessWithdrawal(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateWithdrawal(ctx, arg.SourceAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	// The mirror of the deposit source check: an explicit destination is a
	// customer account being credited and must be able to receive.
	if arg.DestinationAccountID != "" {
		destResult, err := s.validator.ValidateCreditFlow(ctx, arg.DestinationAccountID, arg.Amount)
		if err != nil {
			return domain.Transaction{}, err
		}

		result = domain.NewValidationResult(append(result.Violations, destResult.Violations...))
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewWithdrawal(arg.Amount, arg.SourceAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx.DestinationAccountID = arg.DestinationAccountID

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// ProcessPayment settles an amount from the source account against an
// external payee or expense account.
func (s *Service) ProcessPayment(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateDebitFlow(ctx, arg.SourceAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	if arg.DestinationAccountID != "" {
		destResult, err := s.validator.ValidateCreditFlow(ctx, arg.DestinationAccountID, arg.Amount)
		if err != nil {
			return domain.Transaction{}, err
		}

		result = domain.NewValidationResult(append(result.Violations, destResult.Violations...))
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewPayment(arg.Amount, arg.SourceAccountID, arg.DestinationAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// ProcessFee charges a fee to the source account.
func (s *Service) ProcessFee(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateDebitFlow(ctx, arg.SourceAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewFee(arg.Amount, arg.SourceAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// ProcessInterest credits accrued interest to the destination account.
func (s *Service) ProcessInterest(ctx context.Context, arg Params) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	result, err := s.validator.ValidateCreditFlow(ctx, arg.DestinationAccountID, arg.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewInterest(arg.Amount, arg.DestinationAccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// AdjustmentParams carries the input for a manual adjustment. The sign of
// Amount picks the side: positive debits (increases) the account, negative
// credits it.
type AdjustmentParams struct {
	AccountID      string
	Amount         domain.Money
	Reference      string
	IdempotencyKey string
}

// ProcessAdjustment posts a manual correction against one account, with the
// adjustment counter-account taking the opposite side.
func (s *Service) ProcessAdjustment(ctx context.Context, arg AdjustmentParams) (domain.Transaction, error) {
	if prior, replayed, err := s.replay(ctx, arg.IdempotencyKey); replayed {
		return prior, err
	} else if err != nil {
		return domain.Transaction{}, err
	}

	magnitude := arg.Amount
	if magnitude.IsNegative() {
		magnitude = magnitude.Negate()
	}

	var (
		result domain.ValidationResult
		err    error
	)

	if arg.Amount.IsNegative() {
		result, err = s.validator.ValidateDebitFlow(ctx, arg.AccountID, magnitude)
	} else {
		result, err = s.validator.ValidateCreditFlow(ctx, arg.AccountID, magnitude)
	}

	if err != nil {
		return domain.Transaction{}, err
	}

	if err := result.Err(); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.NewAdjustment(arg.Amount, arg.AccountID, arg.Reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.run(ctx, tx, arg.IdempotencyKey)
}

// Get returns the transaction with the given id.
func (s *Service) Get(ctx context.Context, id string) (domain.Transaction, error) {
	return s.txs.Get(ctx, id)
}

// ReverseTransaction posts the inverse of a completed transaction and marks
// the original Reversed with a back-reference to the new reversal.
func (s *Service) ReverseTransaction(ctx context.Context, originalID, reference string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	original, err := s.txs.Get(ctx, originalID)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := original.CheckReversible(s.reversalWindow); err != nil {
		return domain.Transaction{}, err
	}

	if reference == "" {
		reference = fmt.Sprintf("reversal of %s", original.Reference)
	}

	reversal, err := domain.NewReversal(original, reference)
	if err != nil {
		return domain.Transaction{}, err
	}

	reversal, err = s.run(ctx, reversal, "")
	if err != nil {
		return reversal, err
	}

	if err := original.MarkReversed(reversal.ID); err != nil {
		return reversal, err
	}

	if err := s.persistStatus(ctx, original, "transaction.reversed"); err != nil {
		l.Error().Err(err).Msgf("reversal %s completed but original %s could not be updated", reversal.ID, original.ID)
		return reversal, err
	}

	return reversal, nil
}

// Package ledgerservice manages business logic layer of the double-entry ledger.
package ledgerservice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/finvault/corebank/internal/domain"
)

// Well-known internal counter-accounts used when only one real customer
// account participates in a posting.
const (
	ExternalAccount        = "EXTERNAL"
	FeeRevenueAccount      = "FEE_REVENUE"
	InterestExpenseAccount = "INTEREST_EXPENSE"
	AdjustmentAccount      = "ADJUSTMENT_ACCOUNT"
)

var counterAccounts = map[string]bool{
	ExternalAccount:        true,
	FeeRevenueAccount:      true,
	InterestExpenseAccount: true,
	AdjustmentAccount:      true,
}

// IsCounterAccount reports whether the id names an internal counter-account.
func IsCounterAccount(id string) bool {
	return counterAccounts[id]
}

// Repo provides the append-only entry store interface needed by the service.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Append(ctx context.Context, e domain.Entry) (domain.Entry, error)
	ByAccount(ctx context.Context, accountID string) ([]domain.Entry, error)
	ByTransaction(ctx context.Context, transactionID string) ([]domain.Entry, error)
	ByDateRange(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error)
	All(ctx context.Context) ([]domain.Entry, error)
}

// BalanceStore provides the balance collaborator interface needed by the
// service. Update must reject stale versions with ErrStaleBalanceVersion.
type BalanceStore interface {
	Get(ctx context.Context, accountID string) (domain.Balance, error)
	Update(ctx context.Context, b domain.Balance) (domain.Balance, error)
}

// Service facilitates ledger business logic: appending balanced entries,
// deriving balances and verifying the double-entry invariant.
type Service struct {
	repo     Repo
	balances BalanceStore
}

// New returns a ledger service struct over the given entry and balance stores.
func New(repo Repo, balances BalanceStore) *Service {
	return &Service{repo: repo, balances: balances}
}

// AddEntry validates and appends a single entry.
func (s *Service) AddEntry(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	if err := e.Validate(); err != nil {
		return domain.Entry{}, err
	}

	return s.repo.Append(ctx, e)
}

// ValidateDoubleEntry checks a proposed debit/credit pair before anything is
// appended. Amounts are integer minor units, so equality is exact.
func (s *Service) ValidateDoubleEntry(debit, credit domain.Entry) error {
	var reason string

	switch {
	case debit.Type != domain.Debit:
		reason = "first entry must be a debit"
	case credit.Type != domain.Credit:
		reason = "second entry must be a credit"
	case debit.TransactionID != credit.TransactionID:
		reason = "entries must share one transaction"
	case debit.Amount.Currency != credit.Amount.Currency:
		reason = "entries must share one currency"
	case debit.Amount.Amount != credit.Amount.Amount:
		reason = fmt.Sprintf("debit %s does not equal credit %s", debit.Amount, credit.Amount)
	default:
		return nil
	}

	return &domain.DoubleEntryError{TransactionID: debit.TransactionID, Reason: reason}
}

// CalculateBalance derives the account's debit total, credit total and net
// from its entries. Net follows the asset convention: debits minus credits.
func (s *Service) CalculateBalance(ctx context.Context, accountID string) (domain.AccountBalance, error) {
	entries, err := s.repo.ByAccount(ctx, accountID)
	if err != nil {
		return domain.AccountBalance{}, err
	}

	var currency string
	if len(entries) > 0 {
		currency = entries[0].Amount.Currency
	}

	out := domain.AccountBalance{
		AccountID:   accountID,
		DebitTotal:  domain.NewMoney(0, currency),
		CreditTotal: domain.NewMoney(0, currency),
	}

	for _, e := range entries {
		if e.Type == domain.Debit {
			out.DebitTotal.Amount += e.Amount.Amount
		} else {
			out.CreditTotal.Amount += e.Amount.Amount
		}
	}

	out.Net = domain.NewMoney(out.DebitTotal.Amount-out.CreditTotal.Amount, currency)

	return out, nil
}

// VerifyLedgerBalance checks the global invariant: per currency, the sum of
// all debits equals the sum of all credits.
func (s *Service) VerifyLedgerBalance(ctx context.Context) error {
	entries, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	totals := make(map[string]int64)

	for _, e := range entries {
		if e.Type == domain.Debit {
			totals[e.Amount.Currency] += e.Amount.Amount
		} else {
			totals[e.Amount.Currency] -= e.Amount.Amount
		}
	}

	for currency, total := range totals {
		if total != 0 {
			return &domain.DoubleEntryError{
				Reason: fmt.Sprintf("global debits and credits differ by %d minor units of %s", total, currency),
			}
		}
	}

	return nil
}

// EntriesByAccount returns all entries for the account.
func (s *Service) EntriesByAccount(ctx context.Context, accountID string) ([]domain.Entry, error) {
	return s.repo.ByAccount(ctx, accountID)
}

// EntriesByTransaction returns all entries for the transaction.
func (s *Service) EntriesByTransaction(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	return s.repo.ByTransaction(ctx, transactionID)
}

// EntriesByDateRange returns the account's entries created within [from, to].
func (s *Service) EntriesByDateRange(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error) {
	return s.repo.ByDateRange(ctx, accountID, from, to)
}

// net returns the account's current signed net in the given currency.
func (s *Service) net(ctx context.Context, accountID, currency string) (domain.Money, error) {
	balance, err := s.CalculateBalance(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}

	if balance.Net.Currency == "" {
		balance.Net.Currency = currency
	}

	return balance.Net, nil
}

// applyToBalance moves the account's stored ledger balance by delta under
// optimistic concurrency and returns the resulting ledger balance. Internal
// counter-accounts carry no balance record; their running balance is derived
// from the ledger itself.
func (s *Service) applyToBalance(ctx context.Context, accountID string, delta domain.Money) (domain.Money, error) {
	if IsCounterAccount(accountID) {
		prior, err := s.net(ctx, accountID, delta.Currency)
		if err != nil {
			return domain.Money{}, err
		}

		return prior.Add(delta)
	}

	b, err := s.balances.Get(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}

	ledger, err := b.Ledger.Add(delta)
	if err != nil {
		return domain.Money{}, err
	}

	b.Ledger = ledger

	updated, err := s.balances.Update(ctx, b)
	if err != nil {
		return domain.Money{}, err
	}

	return updated.Ledger, nil
}

func (s *Service) record(ctx context.Context, accountID string, entryType domain.EntryType, amount domain.Money, transactionID, description string) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	delta := amount
	if entryType == domain.Credit {
		delta = amount.Negate()
	}

	running, err := s.applyToBalance(ctx, accountID, delta)
	if err != nil {
		l.Error().Err(err).Msgf("record %s %s for account %s", entryType, amount, accountID)
		return domain.Entry{}, err
	}

	entry := domain.Entry{
		TransactionID:  transactionID,
		AccountID:      accountID,
		Type:           entryType,
		Amount:         amount,
		RunningBalance: running,
		Description:    description,
	}

	return s.AddEntry(ctx, entry)
}

// RecordDebit posts one debit leg: the account's balance moves up by amount
// and the matching entry is appended.
func (s *Service) RecordDebit(ctx context.Context, accountID string, amount domain.Money, transactionID, description string) (domain.Entry, error) {
	return s.record(ctx, accountID, domain.Debit, amount, transactionID, description)
}

// RecordCredit posts one credit leg: the account's balance moves down by
// amount and the matching entry is appended.
func (s *Service) RecordCredit(ctx context.Context, accountID string, amount domain.Money, transactionID, description string) (domain.Entry, error) {
	return s.record(ctx, accountID, domain.Credit, amount, transactionID, description)
}

// Rollback restores the per-transaction debit/credit balance by appending
// offsetting entries for whatever was posted under the transaction id, and
// reverts the matching balance movements. It is idempotent: a transaction
// whose entries already net to zero per account is left untouched.
func (s *Service) Rollback(ctx context.Context, transactionID string) error {
	l := zerolog.Ctx(ctx)

	entries, err := s.repo.ByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	nets := make(map[string]domain.Money)
	order := make([]string, 0, 2)

	for _, e := range entries {
		net, ok := nets[e.AccountID]
		if !ok {
			net = domain.NewMoney(0, e.Amount.Currency)
			order = append(order, e.AccountID)
		}

		net, err = net.Add(e.Signed())
		if err != nil {
			return err
		}

		nets[e.AccountID] = net
	}

	for _, accountID := range order {
		net := nets[accountID]

		switch {
		case net.IsPositive():
			_, err = s.RecordCredit(ctx, accountID, net, transactionID, "rollback")
		case net.IsNegative():
			_, err = s.RecordDebit(ctx, accountID, net.Negate(), transactionID, "rollback")
		default:
			continue
		}

		if err != nil {
			l.Error().Err(err).Msgf("rollback of transaction %s left account %s unbalanced", transactionID, accountID)
			return err
		}
	}

	return nil
}

// legs names the two sides of one posting.
type legs struct {
	debitAccount  string
	creditAccount string
}

// legsFor maps a transaction type to its debit and credit accounts. A type
// requiring an account that is absent fails before any entry is created.
// Reversals are derived from the original posting's entries instead, see
// reversalLegs.
func legsFor(tx domain.Transaction) (legs, error) {
	missing := func(field, msg string) error {
		return &domain.ValidationError{Violations: []domain.Violation{{Code: "required", Field: field, Message: msg}}}
	}

	orExternal := func(id string) string {
		if id == "" {
			return ExternalAccount
		}

		return id
	}

	switch tx.Type {
	case domain.Transfer:
		if tx.SourceAccountID == "" || tx.DestinationAccountID == "" {
			return legs{}, missing("account", "transfer requires source and destination accounts")
		}

		return legs{debitAccount: tx.DestinationAccountID, creditAccount: tx.SourceAccountID}, nil

	case domain.Deposit:
		if tx.DestinationAccountID == "" {
			return legs{}, missing("destination_account_id", "deposit requires a destination account")
		}

		return legs{debitAccount: tx.DestinationAccountID, creditAccount: orExternal(tx.SourceAccountID)}, nil

	case domain.Withdrawal:
		if tx.SourceAccountID == "" {
			return legs{}, missing("source_account_id", "withdrawal requires a source account")
		}

		return legs{debitAccount: orExternal(tx.DestinationAccountID), creditAccount: tx.SourceAccountID}, nil

	case domain.Payment:
		if tx.SourceAccountID == "" {
			return legs{}, missing("source_account_id", "payment requires a source account")
		}

		return legs{debitAccount: orExternal(tx.DestinationAccountID), creditAccount: tx.SourceAccountID}, nil

	case domain.Fee:
		if tx.SourceAccountID == "" {
			return legs{}, missing("source_account_id", "fee requires a source account")
		}

		return legs{debitAccount: FeeRevenueAccount, creditAccount: tx.SourceAccountID}, nil

	case domain.Interest:
		if tx.DestinationAccountID == "" {
			return legs{}, missing("destination_account_id", "interest requires a destination account")
		}

		return legs{debitAccount: tx.DestinationAccountID, creditAccount: InterestExpenseAccount}, nil

	case domain.Adjustment:
		switch {
		case tx.DestinationAccountID != "":
			return legs{debitAccount: tx.DestinationAccountID, creditAccount: AdjustmentAccount}, nil
		case tx.SourceAccountID != "":
			return legs{debitAccount: AdjustmentAccount, creditAccount: tx.SourceAccountID}, nil
		default:
			return legs{}, missing("account_id", "adjustment requires an account")
		}

	}

	return legs{}, missing("type", fmt.Sprintf("unknown transaction type %s", tx.Type))
}

// reversalLegs derives the reversal's debit and credit accounts by swapping
// the sides of the original posting's entries, so the counter-leg of a fee or
// interest reversal lands back on the account it was first booked against
// rather than on EXTERNAL.
func (s *Service) reversalLegs(ctx context.Context, tx domain.Transaction) (legs, error) {
	if tx.OriginalTransactionID == "" {
		return legs{}, &domain.ValidationError{Violations: []domain.Violation{{Code: "required", Field: "original_transaction_id", Message: "reversal requires an original transaction"}}}
	}

	entries, err := s.repo.ByTransaction(ctx, tx.OriginalTransactionID)
	if err != nil {
		return legs{}, err
	}

	var sides legs

	for _, e := range entries {
		switch e.Type {
		case domain.Debit:
			sides.creditAccount = e.AccountID
		case domain.Credit:
			sides.debitAccount = e.AccountID
		}
	}

	if sides.debitAccount == "" || sides.creditAccount == "" {
		return legs{}, fmt.Errorf("reversal of transaction %s: %w", tx.OriginalTransactionID, domain.ErrTransactionNotFound)
	}

	return sides, nil
}

// PostTransaction maps the transaction to its balanced debit/credit pair,
// validates the pair and posts both legs. The debit leg always posts first;
// a failure between the legs leaves the ledger recoverable via Rollback.
func (s *Service) PostTransaction(ctx context.Context, tx domain.Transaction) ([]domain.Entry, error) {
	var (
		sides legs
		err   error
	)

	if tx.Type == domain.Reversal {
		sides, err = s.reversalLegs(ctx, tx)
	} else {
		sides, err = legsFor(tx)
	}

	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("%s %s", tx.Type, tx.Reference)

	proposedDebit := domain.Entry{
		TransactionID: tx.ID,
		AccountID:     sides.debitAccount,
		Type:          domain.Debit,
		Amount:        tx.Amount,
		Description:   description,
	}
	proposedCredit := domain.Entry{
		TransactionID: tx.ID,
		AccountID:     sides.creditAccount,
		Type:          domain.Credit,
		Amount:        tx.Amount,
		Description:   description,
	}

	if err := s.ValidateDoubleEntry(proposedDebit, proposedCredit); err != nil {
		return nil, err
	}

	debit, err := s.RecordDebit(ctx, sides.debitAccount, tx.Amount, tx.ID, description)
	if err != nil {
		return nil, err
	}

	credit, err := s.RecordCredit(ctx, sides.creditAccount, tx.Amount, tx.ID, description)
	if err != nil {
		return []domain.Entry{debit}, err
	}

	return []domain.Entry{debit, credit}, nil
}

// Statement returns the account's entries in [from, to] sorted ascending by
// creation time.
func (s *Service) Statement(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error) {
	entries, err := s.repo.ByDateRange(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// Reconcile independently recomputes the account's expected net by summing
// signed entry amounts and compares it against the ledger-derived balance.
// It reports the discrepancy; it never repairs anything.
func (s *Service) Reconcile(ctx context.Context, accountID string) (domain.Reconciliation, error) {
	entries, err := s.repo.ByAccount(ctx, accountID)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	var currency string
	if len(entries) > 0 {
		currency = entries[0].Amount.Currency
	}

	expected := domain.NewMoney(0, currency)
	for _, e := range entries {
		expected, err = expected.Add(e.Signed())
		if err != nil {
			return domain.Reconciliation{}, err
		}
	}

	actual, err := s.CalculateBalance(ctx, accountID)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	discrepancy, err := expected.Sub(actual.Net)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	return domain.Reconciliation{
		AccountID:   accountID,
		Expected:    expected,
		Actual:      actual.Net,
		Discrepancy: discrepancy,
		IsBalanced:  discrepancy.IsZero(),
	}, nil
}

// Package transactionrepo manages repository layer of transactions.
package transactionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/finvault/corebank/internal/domain"
)

// RepoMem is an in-memory transaction store indexed by id and idempotency key.
type RepoMem struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	byIdemKey    map[string]string
}

// NewRepoMem returns an empty in-memory transaction store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		transactions: make(map[string]domain.Transaction),
		byIdemKey:    make(map[string]string),
	}
}

// Save stores a new transaction.
func (r *RepoMem) Save(ctx context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[tx.ID]; ok {
		return domain.ErrTransactionAlreadyProcessed
	}

	r.transactions[tx.ID] = tx
	if tx.IdempotencyKey != "" {
		r.byIdemKey[tx.IdempotencyKey] = tx.ID
	}

	return nil
}

// Update overwrites an existing transaction.
func (r *RepoMem) Update(ctx context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[tx.ID]; !ok {
		return domain.ErrTransactionNotFound
	}

	r.transactions[tx.ID] = tx

	return nil
}

// Get returns the transaction with the given id.
func (r *RepoMem) Get(ctx context.Context, id string) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return tx, nil
}

// GetByIdempotencyKey returns the transaction created under the given key.
func (r *RepoMem) GetByIdempotencyKey(ctx context.Context, key string) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdemKey[key]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}

	return r.transactions[id], nil
}

// DailyTotal sums the amounts of the account's completed transactions of the
// given type created on the given day. Used for daily cumulative limits.
func (r *RepoMem) DailyTotal(ctx context.Context, accountID string, txType domain.TransactionType, day time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var total int64

	for _, tx := range r.transactions {
		if tx.Type != txType || tx.SourceAccountID != accountID {
			continue
		}

		if tx.Status != domain.StatusCompleted && tx.Status != domain.StatusProcessing && tx.Status != domain.StatusPending {
			continue
		}

		if tx.CreatedAt.Before(dayStart) || !tx.CreatedAt.Before(dayEnd) {
			continue
		}

		total += tx.Amount.Amount
	}

	return total, nil
}

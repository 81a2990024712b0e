// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finvault/corebank/internal/domain"
)

// RepoMem is an in-memory account store safe for concurrent use.
type RepoMem struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewRepoMem returns an empty in-memory account store.
func NewRepoMem() *RepoMem {
	return &RepoMem{accounts: make(map[string]domain.Account)}
}

// Create stores a new active account and returns it.
func (r *RepoMem) Create(ctx context.Context, owner, currency string, overdraftLimit int64) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account := domain.Account{
		ID:             uuid.NewString(),
		Owner:          owner,
		Currency:       currency,
		Status:         domain.AccountActive,
		OverdraftLimit: domain.NewMoney(overdraftLimit, currency),
		CreatedAt:      time.Now().UTC(),
	}
	r.accounts[account.ID] = account

	return account, nil
}

// Get returns the account with the given id.
func (r *RepoMem) Get(ctx context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return account, nil
}

// SetStatus updates the account status.
func (r *RepoMem) SetStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	account.Status = status
	r.accounts[id] = account

	return account, nil
}

// Package balancerepo manages repository layer of account balances.
package balancerepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finvault/corebank/internal/domain"
)

// RepoMem is an in-memory balance store with optimistic concurrency.
// Update rejects writes carrying a stale version so that two postings
// racing on the same account cannot both apply a stale read.
type RepoMem struct {
	mu       sync.RWMutex
	balances map[string]domain.Balance
	holds    map[string][]domain.Hold
}

// NewRepoMem returns an empty in-memory balance store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		balances: make(map[string]domain.Balance),
		holds:    make(map[string][]domain.Hold),
	}
}

// Init creates a zero balance for the account if none exists yet.
func (r *RepoMem) Init(ctx context.Context, accountID, currency string) (domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.balances[accountID]; ok {
		return b, nil
	}

	b := domain.NewBalance(accountID, currency)
	r.balances[accountID] = b

	return b, nil
}

// Get returns the current balance for the account.
func (r *RepoMem) Get(ctx context.Context, accountID string) (domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.balances[accountID]
	if !ok {
		return domain.Balance{}, domain.ErrBalanceNotFound
	}

	return b, nil
}

// Update writes the balance if its Version matches the stored one, bumps the
// version and restores the available-balance invariant. A stale version
// fails with ErrStaleBalanceVersion.
func (r *RepoMem) Update(ctx context.Context, b domain.Balance) (domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.balances[b.AccountID]
	if !ok {
		return domain.Balance{}, domain.ErrBalanceNotFound
	}

	if current.Version != b.Version {
		return domain.Balance{}, domain.ErrStaleBalanceVersion
	}

	b.Version++
	b.UpdatedAt = time.Now().UTC()
	b.Recalculate()
	r.balances[b.AccountID] = b

	return b, nil
}

// AddHold reserves an amount against the account's available balance.
func (r *RepoMem) AddHold(ctx context.Context, accountID string, amount domain.Money, reason string) (domain.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.balances[accountID]
	if !ok {
		return domain.Hold{}, domain.ErrBalanceNotFound
	}

	held, err := b.Held.Add(amount)
	if err != nil {
		return domain.Hold{}, err
	}

	hold := domain.Hold{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}

	b.Held = held
	b.Version++
	b.UpdatedAt = hold.CreatedAt
	b.Recalculate()
	r.balances[accountID] = b
	r.holds[accountID] = append(r.holds[accountID], hold)

	return hold, nil
}

// RemoveHold releases a previously added hold.
func (r *RepoMem) RemoveHold(ctx context.Context, accountID, holdID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.balances[accountID]
	if !ok {
		return domain.ErrBalanceNotFound
	}

	holds := r.holds[accountID]
	for i, h := range holds {
		if h.ID != holdID {
			continue
		}

		held, err := b.Held.Sub(h.Amount)
		if err != nil {
			return err
		}

		b.Held = held
		b.Version++
		b.UpdatedAt = time.Now().UTC()
		b.Recalculate()
		r.balances[accountID] = b
		r.holds[accountID] = append(holds[:i], holds[i+1:]...)

		return nil
	}

	return domain.ErrBalanceNotFound
}

// GetHolds returns the active holds for the account.
func (r *RepoMem) GetHolds(ctx context.Context, accountID string) ([]domain.Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Hold, len(r.holds[accountID]))
	copy(out, r.holds[accountID])

	return out, nil
}

package ledgerrepo

import (
	"context"
	"sync"
	"time"

	"github.com/finvault/corebank/internal/domain"
)

// RepoMem is an in-memory append-only entry store. There are no update or
// delete operations; corrections happen by appending offsetting entries.
type RepoMem struct {
	mu            sync.RWMutex
	entries       []domain.Entry
	byAccount     map[string][]int
	byTransaction map[string][]int
	seq           int64
}

// NewRepoMem returns an empty in-memory entry store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		byAccount:     make(map[string][]int),
		byTransaction: make(map[string][]int),
	}
}

func (r *RepoMem) append(e domain.Entry) domain.Entry {
	r.seq++
	e.ID = newEntryID()
	e.Sequence = r.seq
	e.CreatedAt = time.Now().UTC()

	idx := len(r.entries)
	r.entries = append(r.entries, e)
	r.byAccount[e.AccountID] = append(r.byAccount[e.AccountID], idx)
	r.byTransaction[e.TransactionID] = append(r.byTransaction[e.TransactionID], idx)

	return e
}

// Append stores one entry and returns it with id, sequence and timestamp set.
func (r *RepoMem) Append(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.append(e), nil
}

// ByAccount returns all entries for the account in append order.
func (r *RepoMem) ByAccount(ctx context.Context, accountID string) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.byAccount[accountID]), nil
}

// ByTransaction returns all entries for the transaction in append order.
func (r *RepoMem) ByTransaction(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(r.byTransaction[transactionID]), nil
}

// ByDateRange returns the account's entries created within [from, to].
func (r *RepoMem) ByDateRange(ctx context.Context, accountID string, from, to time.Time) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Entry

	for _, idx := range r.byAccount[accountID] {
		e := r.entries[idx]
		if e.CreatedAt.Before(from) || e.CreatedAt.After(to) {
			continue
		}

		out = append(out, e)
	}

	return out, nil
}

// All returns every entry in append order.
func (r *RepoMem) All(ctx context.Context) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Entry, len(r.entries))
	copy(out, r.entries)

	return out, nil
}

func (r *RepoMem) collect(idxs []int) []domain.Entry {
	out := make([]domain.Entry, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, r.entries[idx])
	}

	return out
}

package transactions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

type dedupeKey struct {
	date        int64
	amount      string
	description string
	bank        string
}

func keyOf(tx statement.Transaction) dedupeKey {
	return dedupeKey{
		date:        tx.Timestamp.UnixNano(),
		amount:      tx.Amount.String(),
		description: tx.Description,
		bank:        tx.Bank,
	}
}

// MemoryRepository keeps transactions in process memory. It backs dry runs
// and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []StoredTransaction
	keys  map[dedupeKey]struct{}
	now   func() time.Time
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		keys: make(map[dedupeKey]struct{}),
		now:  time.Now,
	}
}

func (r *MemoryRepository) Add(_ context.Context, tx statement.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(tx), nil
}

func (r *MemoryRepository) addLocked(tx statement.Transaction) bool {
	k := keyOf(tx)
	if _, dup := r.keys[k]; dup {
		return false
	}
	r.keys[k] = struct{}{}
	if tx.Category != nil {
		c := *tx.Category
		tx.Category = &c
	}
	r.items = append(r.items, StoredTransaction{ID: uuid.New(), Transaction: tx, ImportedAt: r.now()})
	return true
}

func (r *MemoryRepository) AddAll(_ context.Context, txs []statement.Transaction) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	added, duplicates := 0, 0
	for _, tx := range txs {
		if r.addLocked(tx) {
			added++
		} else {
			duplicates++
		}
	}
	return added, duplicates, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]StoredTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []StoredTransaction
	for _, it := range r.items {
		if f.Category != nil && (it.Category == nil || *it.Category != *f.Category) {
			continue
		}
		if f.From != nil && it.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && it.Timestamp.After(*f.To) {
			continue
		}
		if f.Bank != "" && it.Bank != f.Bank {
			continue
		}
		out = append(out, it)
	}
	sortNewestFirst(out)
	return applyTransferFilter(out, f), nil
}

func (r *MemoryRepository) ListByCategories(_ context.Context, categories ...statement.Category) ([]StoredTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []StoredTransaction
	for _, it := range r.items {
		if it.Category != nil && slices.Contains(categories, *it.Category) {
			out = append(out, it)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepository) UpdateCategory(_ context.Context, id uuid.UUID, category statement.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			c := category
			r.items[i].Category = &c
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.keys = make(map[dedupeKey]struct{})
	return nil
}

// Len returns the number of stored transactions.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func sortNewestFirst(items []StoredTransaction) {
	slices.SortStableFunc(items, func(a, b StoredTransaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

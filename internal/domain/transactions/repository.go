// Package transactions persists categorized statement transactions and
// answers the queries behind listings, reports and category migration.
package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

// ErrNotFound is returned when an update targets a missing transaction.
var ErrNotFound = errors.New("transaction not found")

// StoredTransaction is a transaction as persisted.
type StoredTransaction struct {
	ID uuid.UUID
	statement.Transaction
	ImportedAt time.Time
}

// Filter narrows List. Zero values mean no constraint.
type Filter struct {
	Category                 *statement.Category
	From                     *time.Time
	To                       *time.Time
	Bank                     string
	Limit                    int
	IncludeInternalTransfers bool
}

// Repository stores transactions. A transaction with the same timestamp,
// amount, description and bank as a stored one is a duplicate.
type Repository interface {
	// Add stores tx and reports false when it is a duplicate.
	Add(ctx context.Context, tx statement.Transaction) (bool, error)
	AddAll(ctx context.Context, txs []statement.Transaction) (added, duplicates int, err error)
	// List returns matching transactions, newest first.
	List(ctx context.Context, f Filter) ([]StoredTransaction, error)
	ListByCategories(ctx context.Context, categories ...statement.Category) ([]StoredTransaction, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, category statement.Category) error
	Clear(ctx context.Context) error
}

// applyTransferFilter drops internal transfers unless requested, then
// applies the limit.
func applyTransferFilter(items []StoredTransaction, f Filter) []StoredTransaction {
	if !f.IncludeInternalTransfers {
		kept := items[:0]
		for _, it := range items {
			if !it.IsInternalTransfer() {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items
}

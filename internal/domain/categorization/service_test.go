package categorization

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingStore struct {
	listErr   error
	updateErr error
	items     []transactions.StoredTransaction
}

func (f *failingStore) ListByCategories(context.Context, ...statement.Category) ([]transactions.StoredTransaction, error) {
	return f.items, f.listErr
}

func (f *failingStore) UpdateCategory(context.Context, uuid.UUID, statement.Category) error {
	return f.updateErr
}

func TestService_Migrate(t *testing.T) {
	ctx := context.Background()
	repo := transactions.NewMemoryRepository()
	_, _, err := repo.AddAll(ctx, []statement.Transaction{
		categorized("Оплата услуг BEELINE", statement.Other),
		categorized("Оплата в PYATEROCHKA 123", statement.Transfers),
		categorized("Перевод по номеру телефона", statement.Transfers),
		categorized("Some unknown merchant XYZ", statement.Other),
		categorized("Перевод Иванову", statement.Groceries),
	})
	require.NoError(t, err)

	svc := NewService(newDefaultEngine(t), repo, discardLogger())

	checked, updated, err := svc.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, checked, "only Transfers and Other are candidates")
	assert.Equal(t, 2, updated)

	byDesc := map[string]statement.Category{}
	items, err := repo.List(ctx, transactions.Filter{IncludeInternalTransfers: true})
	require.NoError(t, err)
	for _, it := range items {
		byDesc[it.Description] = it.CategoryOrOther()
	}
	assert.Equal(t, statement.Communication, byDesc["Оплата услуг BEELINE"])
	assert.Equal(t, statement.Groceries, byDesc["Оплата в PYATEROCHKA 123"])
	assert.Equal(t, statement.Transfers, byDesc["Перевод по номеру телефона"])
	assert.Equal(t, statement.Other, byDesc["Some unknown merchant XYZ"])
	assert.Equal(t, statement.Groceries, byDesc["Перевод Иванову"], "specific categories are never downgraded")

	checked, updated, err = svc.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Zero(t, updated, "second run is a no-op")
}

func TestService_Migrate_Errors(t *testing.T) {
	engine := newDefaultEngine(t)

	t.Run("list failure", func(t *testing.T) {
		svc := NewService(engine, &failingStore{listErr: errors.New("db down")}, discardLogger())
		_, _, err := svc.Migrate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load migration candidates")
	})

	t.Run("update failure", func(t *testing.T) {
		store := &failingStore{
			updateErr: transactions.ErrNotFound,
			items: []transactions.StoredTransaction{
				{ID: uuid.New(), Transaction: categorized("BEELINE", statement.Other)},
			},
		}
		svc := NewService(engine, store, discardLogger())
		checked, updated, err := svc.Migrate(context.Background())
		require.ErrorIs(t, err, transactions.ErrNotFound)
		assert.Equal(t, 1, checked)
		assert.Zero(t, updated)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		store := &failingStore{items: []transactions.StoredTransaction{
			{ID: uuid.New(), Transaction: categorized("BEELINE", statement.Other)},
		}}
		svc := NewService(engine, store, discardLogger())
		_, _, err := svc.Migrate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

package transactions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

func TestMemoryRepository_Deduplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	tx := sampleTx("Оплата в PYATEROCHKA", "-100.00")
	same := tx
	same.Amount = decimal.RequireFromString("-100") // equal value, different scale

	added, err := repo.Add(ctx, tx)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, same)
	require.NoError(t, err)
	assert.False(t, added)

	otherBank := tx
	otherBank.Bank = "Alfa-Bank"
	added, err = repo.Add(ctx, otherBank)
	require.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, 2, repo.Len())
}

func TestMemoryRepository_AddAll(t *testing.T) {
	gofakeit.Seed(42)
	repo := NewMemoryRepository()

	var txs []statement.Transaction
	for i := 0; i < 20; i++ {
		tx := sampleTx(gofakeit.Company(), "-10.00")
		tx.Timestamp = tx.Timestamp.Add(time.Duration(i) * time.Minute)
		txs = append(txs, tx)
	}

	added, dups, err := repo.AddAll(context.Background(), txs)
	require.NoError(t, err)
	assert.Equal(t, 20, added)
	assert.Zero(t, dups)

	added, dups, err = repo.AddAll(context.Background(), txs)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 20, dups)
}

func TestMemoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(day int, desc, amount string, cat statement.Category, bank string) statement.Transaction {
		tx := sampleTx(desc, amount)
		tx.Timestamp = base.AddDate(0, 0, day)
		tx.Bank = bank
		tx.SetCategory(cat)
		return tx
	}
	_, _, err := repo.AddAll(ctx, []statement.Transaction{
		mk(0, "Оплата в LENTA", "-500.00", statement.Groceries, "T-Bank"),
		mk(1, "Внутренний перевод", "-1000.00", statement.Transfers, "T-Bank"),
		mk(2, "Оплата в TOKYO CITY", "-1500.00", statement.Restaurants, "Alfa-Bank"),
		mk(3, "Зарплата", "50000.00", statement.Other, "Alfa-Bank"),
	})
	require.NoError(t, err)

	groceries := statement.Groceries
	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "all newest first without transfers",
			filter: Filter{},
			want:   []string{"Зарплата", "Оплата в TOKYO CITY", "Оплата в LENTA"},
		},
		{
			name:   "including transfers",
			filter: Filter{IncludeInternalTransfers: true},
			want:   []string{"Зарплата", "Оплата в TOKYO CITY", "Внутренний перевод", "Оплата в LENTA"},
		},
		{
			name:   "by category",
			filter: Filter{Category: &groceries},
			want:   []string{"Оплата в LENTA"},
		},
		{
			name:   "by date range inclusive",
			filter: Filter{From: &from, To: &to, IncludeInternalTransfers: true},
			want:   []string{"Оплата в TOKYO CITY", "Внутренний перевод"},
		},
		{
			name:   "by bank",
			filter: Filter{Bank: "Alfa-Bank"},
			want:   []string{"Зарплата", "Оплата в TOKYO CITY"},
		},
		{
			name:   "limit after transfer filter",
			filter: Filter{Limit: 2},
			want:   []string{"Зарплата", "Оплата в TOKYO CITY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var got []string
			for _, it := range items {
				got = append(got, it.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryRepository_UpdateCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	tx := sampleTx("BEELINE", "-300.00")
	tx.SetCategory(statement.Other)
	_, err := repo.Add(ctx, tx)
	require.NoError(t, err)

	items, err := repo.ListByCategories(ctx, statement.Other, statement.Transfers)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, repo.UpdateCategory(ctx, items[0].ID, statement.Communication))

	items, err = repo.ListByCategories(ctx, statement.Other)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, repo.UpdateCategory(ctx, uuid.New(), statement.Cash), ErrNotFound)
}

func TestMemoryRepository_StoredCategoryIsCopied(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	tx := sampleTx("BEELINE", "-300.00")
	tx.SetCategory(statement.Other)
	_, err := repo.Add(ctx, tx)
	require.NoError(t, err)

	*tx.Category = statement.Cash

	items, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, statement.Other, *items[0].Category)
}

func TestMemoryRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tx := sampleTx("x", "-1.00")
	_, _ = repo.Add(ctx, tx)

	require.NoError(t, repo.Clear(ctx))
	assert.Zero(t, repo.Len())

	added, err := repo.Add(ctx, tx)
	require.NoError(t, err)
	assert.True(t, added, "dedupe keys are reset")
}

func TestMemoryRepository_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tx := sampleTx("same", "-1.00")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Add(ctx, tx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Len())
}

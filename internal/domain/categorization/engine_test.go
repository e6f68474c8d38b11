package categorization

import (
	"slices"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewDefaultEngine()
	require.NoError(t, err)
	return e
}

func tx(desc string) statement.Transaction {
	return statement.Transaction{
		Amount:      decimal.NewFromInt(-100),
		Description: desc,
		Bank:        "T-Bank",
	}
}

func categorized(desc string, c statement.Category) statement.Transaction {
	t := tx(desc)
	t.SetCategory(c)
	return t
}

// ============================================================================
// Categorize
// ============================================================================

func TestEngine_Categorize(t *testing.T) {
	engine := newDefaultEngine(t)

	tests := []struct {
		name        string
		description string
		want        statement.Category
	}{
		{"grocery chain with store number", "Оплата в PYATEROCHKA 123", statement.Groceries},
		{"unknown merchant", "Some unknown merchant XYZ", statement.Other},
		{"transfer keyword without brand", "Перевод по номеру телефона", statement.Transfers},
		{"restaurant tokyo city", "Оплата в TOKYO CITY SANKT-PETERBU", statement.Restaurants},
		{"restaurant vkusno i tochka", "VKUSNOITOCHKA 1234", statement.Restaurants},
		{"restaurant rostics mixed case", "Rostics Nevsky", statement.Restaurants},
		{"mobile operator latin", "Оплата услуг BEELINE", statement.Communication},
		{"mobile operator cyrillic", "Оплата МТС", statement.Communication},
		{"cyrillic operator is a whole word", "Оплата МТСБАНК", statement.Other},
		{"metro cash and carry is groceries", "METRO CASH AND CARRY", statement.Groceries},
		{"metro without cash is transit", "Оплата METRO", statement.Transport},
		{"metro taxi is transit", "Metro Taxi", statement.Transport},
		{"cyrillic metro is transit", "МЕТРО Москва", statement.Transport},
		{"pharmacy", "АПТЕКА РИГЛА", statement.Health},
		{"clothing whole word", "Оплата в ZARA HOME", statement.Clothing},
		{"clothing prefix of another word", "ZARAGOZA", statement.Other},
		{"cashback", "Кэшбэк за покупки", statement.Cashback},
		{"cash withdrawal", "Снятие наличных в банкомате", statement.Cash},
		{"marketplace", "Оплата OZON.RU", statement.Entertainment},
		{"case insensitive", "оплата в pyaterochka", statement.Groceries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Categorize(tx(tt.description)))
		})
	}
}

func TestEngine_Categorize_IgnoresExistingCategory(t *testing.T) {
	engine := newDefaultEngine(t)
	assert.Equal(t, statement.Groceries, engine.Categorize(categorized("PYATEROCHKA", statement.Cash)))
}

func TestEngine_Match(t *testing.T) {
	engine := newDefaultEngine(t)

	c, ok := engine.Match("LENTA-0010")
	assert.True(t, ok)
	assert.Equal(t, statement.Groceries, c)

	_, ok = engine.Match("nothing here")
	assert.False(t, ok)
}

func TestEngine_MatchAll(t *testing.T) {
	engine := newDefaultEngine(t)
	got := engine.MatchAll("KFC в ТЦ МЕТРО")
	assert.Equal(t, []statement.Category{statement.Restaurants, statement.Transport}, got)
}

// ============================================================================
// Rule ordering
// ============================================================================

func TestEngine_RuleOrderDeterminism(t *testing.T) {
	rules := DefaultRules()
	forward, err := NewEngine(rules)
	require.NoError(t, err)

	reversed := slices.Clone(rules)
	slices.Reverse(reversed)
	backward, err := NewEngine(reversed)
	require.NoError(t, err)

	desc := "KFC в ТЦ МЕТРО"
	for i := 0; i < 10; i++ {
		assert.Equal(t, statement.Restaurants, forward.Categorize(tx(desc)))
		assert.Equal(t, statement.Transport, backward.Categorize(tx(desc)))
	}
}

func TestEngine_Rules(t *testing.T) {
	engine := newDefaultEngine(t)

	summaries := engine.Rules()
	require.Len(t, summaries, engine.RuleCount())

	var order []statement.Category
	for _, s := range summaries {
		assert.Positive(t, s.Patterns)
		order = append(order, s.Category)
	}
	assert.Equal(t, []statement.Category{
		statement.Groceries,
		statement.Restaurants,
		statement.Transport,
		statement.Communication,
		statement.Entertainment,
		statement.Health,
		statement.Clothing,
		statement.Transfers,
		statement.Cashback,
		statement.Cash,
	}, order)
}

// ============================================================================
// CategorizeAll
// ============================================================================

func TestEngine_CategorizeAll_Idempotent(t *testing.T) {
	engine := newDefaultEngine(t)

	txs := []statement.Transaction{
		tx("Оплата в PYATEROCHKA 123"),
		categorized("Оплата в LENTA", statement.Health),
		tx("Some unknown merchant XYZ"),
	}

	assert.Equal(t, 2, engine.CategorizeAll(txs))
	first := make([]statement.Category, len(txs))
	for i, tr := range txs {
		first[i] = tr.CategoryOrOther()
	}
	assert.Equal(t, []statement.Category{statement.Groceries, statement.Health, statement.Other}, first)

	assert.Zero(t, engine.CategorizeAll(txs))
	for i, tr := range txs {
		assert.Equal(t, first[i], tr.CategoryOrOther())
	}
}

// ============================================================================
// Recategorize
// ============================================================================

func TestEngine_Recategorize(t *testing.T) {
	engine := newDefaultEngine(t)

	tests := []struct {
		name       string
		tx         statement.Transaction
		want       statement.Category
		wantUpdate bool
	}{
		{"uncategorized", tx("Оплата услуг BEELINE"), statement.Communication, true},
		{"transfers to specific", categorized("Оплата услуг BEELINE", statement.Transfers), statement.Communication, true},
		{"transfers stays", categorized("Перевод по номеру телефона", statement.Transfers), statement.Transfers, false},
		{"transfers never downgraded to other", categorized("XYZ", statement.Transfers), statement.Transfers, false},
		{"other to specific", categorized("Оплата услуг BEELINE", statement.Other), statement.Communication, true},
		{"other to transfers", categorized("Перевод по номеру телефона", statement.Other), statement.Transfers, true},
		{"other stays", categorized("XYZ", statement.Other), statement.Other, false},
		{"specific never replaced", categorized("Перевод по номеру телефона", statement.Groceries), statement.Groceries, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, update := engine.Recategorize(tt.tx)
			assert.Equal(t, tt.wantUpdate, update)
			if update {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEngine_MigrationNonRegression(t *testing.T) {
	engine := newDefaultEngine(t)

	original := categorized("Оплата в PYATEROCHKA 123", statement.Groceries)
	assert.Equal(t, statement.Groceries, engine.Categorize(original.WithoutCategory()))

	got, update := engine.Recategorize(original)
	assert.False(t, update)
	assert.Equal(t, statement.Groceries, got)
	assert.Equal(t, statement.Groceries, *original.Category, "input is not mutated")
}

// ============================================================================
// Construction
// ============================================================================

func TestNewEngine_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		want  string
	}{
		{
			name:  "invalid pattern",
			rules: []Rule{{Category: statement.Groceries, Patterns: alts(`(`)}},
			want:  "rule 0 (GROCERIES)",
		},
		{
			name:  "invalid guard",
			rules: []Rule{{Category: statement.Transport, Patterns: []Pattern{{Expr: `METRO`, NotFollowedBy: `[`}}}},
			want:  "compile guard",
		},
		{
			name:  "empty pattern",
			rules: []Rule{{Category: statement.Cash, Patterns: alts(``)}},
			want:  "empty pattern",
		},
		{
			name:  "unknown category",
			rules: []Rule{{Category: "PETS", Patterns: alts(`ZOO`)}},
			want:  "unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.rules)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := newDefaultEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, statement.Groceries, engine.Categorize(tx("METRO CASH")))
			}
		}()
	}
	wg.Wait()
}

// Package reports aggregates stored transactions into spending summaries.
package reports

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
)

var hundred = decimal.NewFromInt(100)

// Source lists stored transactions.
type Source interface {
	List(ctx context.Context, f transactions.Filter) ([]transactions.StoredTransaction, error)
}

// Period bounds a report. Nil ends are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

// String renders the period the way report titles show it.
func (p Period) String() string {
	const layout = "02.01.2006"
	switch {
	case p.From != nil && p.To != nil:
		return fmt.Sprintf("%s - %s", p.From.Format(layout), p.To.Format(layout))
	case p.From != nil:
		return "с " + p.From.Format(layout)
	case p.To != nil:
		return "по " + p.To.Format(layout)
	}
	return ""
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category statement.Category
	Amount   decimal.Decimal // absolute value
	Percent  decimal.Decimal // share of all expenses, one decimal place
	Count    int
}

// Summary groups expenses by category.
type Summary struct {
	Period     Period
	Categories []CategoryTotal // largest first
	Expense    decimal.Decimal
	Income     decimal.Decimal
}

// Balance is income minus expense.
func (s *Summary) Balance() decimal.Decimal {
	return s.Income.Sub(s.Expense)
}

// MerchantTotal is the expense total of one normalized merchant.
type MerchantTotal struct {
	Merchant string
	Known    bool
	Amount   decimal.Decimal
	Count    int
}

// Options tune report queries.
type Options struct {
	IncludeInternalTransfers bool
}

// Service builds reports from stored transactions.
type Service struct {
	source    Source
	merchants *normalizer.MerchantSanitizer
	opts      Options
}

// NewService creates a report service. Internal transfers are excluded
// unless opts says otherwise.
func NewService(source Source, opts Options) *Service {
	return &Service{
		source:    source,
		merchants: normalizer.NewMerchantSanitizer(),
		opts:      opts,
	}
}

func (s *Service) list(ctx context.Context, p Period, category *statement.Category) ([]transactions.StoredTransaction, error) {
	items, err := s.source.List(ctx, transactions.Filter{
		Category:                 category,
		From:                     p.From,
		To:                       p.To,
		IncludeInternalTransfers: s.opts.IncludeInternalTransfers,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// Summary returns expenses by category with their share of the total.
func (s *Service) Summary(ctx context.Context, p Period) (*Summary, error) {
	items, err := s.list(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Period: p, Expense: decimal.Zero, Income: decimal.Zero}
	byCategory := map[statement.Category]*CategoryTotal{}
	for _, item := range items {
		tx := item.Transaction
		if tx.IsIncome() {
			summary.Income = summary.Income.Add(tx.Amount)
			continue
		}
		if !tx.IsExpense() {
			continue
		}
		cat := tx.CategoryOrOther()
		total, ok := byCategory[cat]
		if !ok {
			total = &CategoryTotal{Category: cat, Amount: decimal.Zero}
			byCategory[cat] = total
		}
		total.Amount = total.Amount.Add(tx.Amount.Abs())
		total.Count++
		summary.Expense = summary.Expense.Add(tx.Amount.Abs())
	}

	for _, total := range byCategory {
		total.Percent = decimal.Zero
		if summary.Expense.IsPositive() {
			total.Percent = total.Amount.Mul(hundred).Div(summary.Expense).Round(1)
		}
		summary.Categories = append(summary.Categories, *total)
	}
	slices.SortFunc(summary.Categories, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return summary, nil
}

// Totals returns income and the absolute expense over the period.
func (s *Service) Totals(ctx context.Context, p Period) (income, expense decimal.Decimal, err error) {
	items, err := s.list(ctx, p, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	income, expense = decimal.Zero, decimal.Zero
	for _, item := range items {
		switch {
		case item.IsIncome():
			income = income.Add(item.Amount)
		case item.IsExpense():
			expense = expense.Add(item.Amount.Abs())
		}
	}
	return income, expense, nil
}

// TopExpenses returns the largest expenses, optionally within one category.
func (s *Service) TopExpenses(ctx context.Context, p Period, limit int, category *statement.Category) ([]transactions.StoredTransaction, error) {
	items, err := s.list(ctx, p, category)
	if err != nil {
		return nil, err
	}

	expenses := slices.DeleteFunc(items, func(item transactions.StoredTransaction) bool {
		return !item.IsExpense()
	})
	slices.SortStableFunc(expenses, func(a, b transactions.StoredTransaction) int {
		return a.Amount.Cmp(b.Amount)
	})
	if limit > 0 && len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses, nil
}

// TopMerchants groups expenses by normalized merchant name.
func (s *Service) TopMerchants(ctx context.Context, p Period, limit int) ([]MerchantTotal, error) {
	items, err := s.list(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	byMerchant := map[string]*MerchantTotal{}
	for _, item := range items {
		if !item.IsExpense() {
			continue
		}
		info := s.merchants.Sanitize(item.Description)
		total, ok := byMerchant[info.NormalizedName]
		if !ok {
			total = &MerchantTotal{Merchant: info.NormalizedName, Known: info.Known, Amount: decimal.Zero}
			byMerchant[info.NormalizedName] = total
		}
		total.Amount = total.Amount.Add(item.Amount.Abs())
		total.Count++
	}

	out := make([]MerchantTotal, 0, len(byMerchant))
	for _, total := range byMerchant {
		out = append(out, *total)
	}
	slices.SortFunc(out, func(a, b MerchantTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Merchant, b.Merchant)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

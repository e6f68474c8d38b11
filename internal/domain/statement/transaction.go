// Package statement holds the parsed statement model: transactions, their
// categories and the derived totals of a statement.
package statement

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// internalTransferPattern marks moves between the owner's own accounts.
// They are excluded from spending reports unless explicitly requested.
var internalTransferPattern = regexp.MustCompile(`(?i)(внутрибанковский перевод|внутренний перевод|перевод между (?:своими )?счетами|перевод собственных средств|между своими счетами)`)

// Transaction is a single parsed statement line. Category is the only field
// changed after a parser emits it.
type Transaction struct {
	Timestamp        time.Time
	PostingTimestamp *time.Time
	Amount           decimal.Decimal  // negative = expense, positive = income
	AmountOriginal   *decimal.Decimal // operation currency, set only when it differs from Amount
	Currency         string
	Description      string
	Category         *Category
	CardNumber       string // last 4 digits, empty when absent
	Bank             string
}

// IsExpense reports whether the transaction debits the account.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction credits the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsInternalTransfer reports whether the description names a transfer between own accounts.
func (t Transaction) IsInternalTransfer() bool {
	return internalTransferPattern.MatchString(t.Description)
}

// IsDualCurrency reports whether the operation was made in another currency.
func (t Transaction) IsDualCurrency() bool {
	return t.AmountOriginal != nil
}

// HasCategory reports whether a category has been assigned.
func (t Transaction) HasCategory() bool {
	return t.Category != nil
}

// CategoryOrOther returns the assigned category, or Other when unset.
func (t Transaction) CategoryOrOther() Category {
	if t.Category == nil {
		return Other
	}
	return *t.Category
}

// SetCategory assigns c unless a category is already present.
// It returns false when the existing category was kept.
func (t *Transaction) SetCategory(c Category) bool {
	if t.Category != nil {
		return false
	}
	t.Category = &c
	return true
}

// WithoutCategory returns a copy with the category cleared.
func (t Transaction) WithoutCategory() Transaction {
	t.Category = nil
	return t
}

// DisplayAmount formats the amount in the transaction currency.
func (t Transaction) DisplayAmount() string {
	return money.Format(t.Amount, t.currency())
}

func (t Transaction) currency() string {
	if t.Currency == "" {
		return money.DefaultCurrency
	}
	return t.Currency
}

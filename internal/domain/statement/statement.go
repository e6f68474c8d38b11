package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Statement is the result of parsing one bank document. Only its
// transactions are persisted.
type Statement struct {
	Bank            string
	AccountNumber   string
	ContractNumber  string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
	ReportedIncome  *decimal.Decimal
	ReportedExpense *decimal.Decimal
	Transactions    []Transaction
}

// New creates an empty statement for bank.
func New(bank string) *Statement {
	return &Statement{Bank: bank, Transactions: []Transaction{}}
}

// TotalIncome sums positive amounts.
func (s *Statement) TotalIncome() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Transactions {
		if t.IsIncome() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalExpense sums the absolute values of negative amounts.
func (s *Statement) TotalExpense() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Transactions {
		if t.IsExpense() {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// Mismatch describes a difference between a derived and a reported total.
type Mismatch struct {
	Field    string
	Derived  decimal.Decimal
	Reported decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: derived %s, reported %s", m.Field, m.Derived.StringFixed(2), m.Reported.StringFixed(2))
}

// Reconcile compares derived totals with the totals printed on the document.
// Missing reported totals are not compared.
func (s *Statement) Reconcile() []Mismatch {
	var out []Mismatch
	if s.ReportedIncome != nil {
		if derived := s.TotalIncome(); !derived.Equal(*s.ReportedIncome) {
			out = append(out, Mismatch{Field: "income", Derived: derived, Reported: *s.ReportedIncome})
		}
	}
	if s.ReportedExpense != nil {
		if derived := s.TotalExpense(); !derived.Equal(s.ReportedExpense.Abs()) {
			out = append(out, Mismatch{Field: "expense", Derived: derived, Reported: s.ReportedExpense.Abs()})
		}
	}
	return out
}

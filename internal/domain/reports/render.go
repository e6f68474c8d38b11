package reports

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

const descriptionWidth = 40

func title(base string, p Period) string {
	if s := p.String(); s != "" {
		return fmt.Sprintf("%s (%s)", base, s)
	}
	return base
}

// WriteSummary renders a summary as an aligned table.
func WriteSummary(w io.Writer, s *Summary, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, title("Расходы по категориям", s.Period))
	fmt.Fprintln(tw, "Категория\tСумма\t%\t")
	for _, c := range s.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t\n", c.Category.Label(), money.Format(c.Amount, currency), c.Percent.StringFixed(1))
	}
	fmt.Fprintf(tw, "Всего расходов\t%s\t100%%\t\n", money.Format(s.Expense, currency))
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nПополнения: %s\nРасходы: %s\nБаланс: %s\n",
		money.FormatSigned(s.Income, currency),
		money.Format(s.Expense.Neg(), currency),
		money.FormatSigned(s.Balance(), currency),
	)
	return err
}

// WriteTransactions renders a transaction listing.
func WriteTransactions(w io.Writer, heading string, items []transactions.StoredTransaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, heading)
	fmt.Fprintln(tw, "Дата\tОписание\tКатегория\tСумма\tКарта")
	for _, item := range items {
		category := "-"
		if item.HasCategory() {
			category = item.Category.Label()
		}
		card := "-"
		if item.CardNumber != "" {
			card = "*" + item.CardNumber
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Timestamp.Format("02.01.2006 15:04"),
			truncate(item.Description, descriptionWidth),
			category,
			item.DisplayAmount(),
			card,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nВсего: %d транзакций\n", len(items))
	return err
}

// WriteMerchants renders merchant totals.
func WriteMerchants(w io.Writer, heading string, merchants []MerchantTotal, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, heading)
	fmt.Fprintln(tw, "Продавец\tОпераций\tСумма")
	for _, m := range merchants {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Merchant, m.Count, money.Format(m.Amount, currency))
	}
	return tw.Flush()
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return strings.TrimSpace(string(runes[:width])) + "..."
}

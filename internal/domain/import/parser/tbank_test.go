package parser

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tbankStatement = `АО «ТБанк» универсальная лицензия Банка России № 2673
Справка о движении средств
Номер договора: 5082383349
Номер лицевого счета: 40817810700005933169
Движение средств за период с 01.01.2026 по 31.01.2026
Пополнения: +5 000,00 ₽
Расходы: -1 382,63 ₽
Дата и время операции Дата списания Сумма в валюте операции Сумма операции в валюте карты Описание операции Номер карты
28.01.2026 28.01.2026 -1 382.63 ₽ -1 382.63 ₽ Оплата в LENTA-0010 4015
18:30 18:45 SANKT-PETERBU RUS
28.01.2026 28.01.2026 +5 000.00 ₽ +5 000.00 ₽ Внутрибанковский перевод 2934
17:50 17:51 с договора 8121253515
1
`

func TestTBankScenario(t *testing.T) {
	p := NewTBankParser()
	txs := p.parseLines([]string{
		"28.01.2026 28.01.2026 -1 382.63 ₽ -1 382.63 ₽ Оплата в LENTA-0010 4015",
		"18:30 18:45 SANKT-PETERBU RUS",
	})

	require.Len(t, txs, 1)
	tx := txs[0]
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-1382.63")))
	assert.Contains(t, tx.Description, "LENTA")
	assert.Contains(t, tx.Description, "SANKT-PETERBU")
	assert.Equal(t, "4015", tx.CardNumber)
	assert.Equal(t, time.Date(2026, 1, 28, 18, 30, 0, 0, time.UTC), tx.Timestamp)
	require.NotNil(t, tx.PostingTimestamp)
	assert.Equal(t, time.Date(2026, 1, 28, 18, 45, 0, 0, time.UTC), *tx.PostingTimestamp)
	assert.Nil(t, tx.AmountOriginal)
	assert.Nil(t, tx.Category)
	assert.Equal(t, BankTBank, tx.Bank)
	assert.Equal(t, "RUB", tx.Currency)
}

func TestTBankParseLines(t *testing.T) {
	p := NewTBankParser()
	txs := p.parseLines([]string{
		"28.01.2026 28.01.2026 -1 382.63 ₽ -1 382.63 ₽ Оплата в LENTA-0010 4015",
		"18:30 18:45 SANKT-PETERBU RUS",
		"28.01.2026 28.01.2026 +5 000.00 ₽ +5 000.00 ₽ Внутрибанковский перевод 2934",
		"17:50 17:51 с договора 8121253515",
	})

	require.Len(t, txs, 2)
	assert.Equal(t, "Оплата в LENTA-0010 SANKT-PETERBU RUS", txs[0].Description)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("5000.00")))
	assert.Equal(t, "2934", txs[1].CardNumber)
	assert.Equal(t, "Внутрибанковский перевод с договора 8121253515", txs[1].Description)
	assert.Equal(t, 17, txs[1].Timestamp.Hour())
	assert.Equal(t, 50, txs[1].Timestamp.Minute())
}

func TestTBankWithoutTimeLine(t *testing.T) {
	p := NewTBankParser()
	txs := p.parseLines([]string{
		"02.02.2026 03.02.2026 -100.00 ₽ -100.00 ₽ Оплата в DIXY 4015",
		"Итого",
	})

	require.Len(t, txs, 1)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), txs[0].Timestamp)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), *txs[0].PostingTimestamp)
	assert.Equal(t, "Оплата в DIXY", txs[0].Description)
}

func TestTBankDualCurrency(t *testing.T) {
	p := NewTBankParser()
	txs := p.parseLines([]string{
		"10.01.2026 11.01.2026 -20.00 ₽ -1 850.40 ₽ Оплата в STEAM 4015",
	})

	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-1850.40")))
	require.NotNil(t, txs[0].AmountOriginal)
	assert.True(t, txs[0].AmountOriginal.Equal(decimal.RequireFromString("-20.00")))
	assert.True(t, txs[0].IsDualCurrency())
}

func TestTBankDropsInvalidDate(t *testing.T) {
	p := NewTBankParser()
	txs := p.parseLines([]string{
		"31.02.2026 31.02.2026 -10.00 ₽ -10.00 ₽ Оплата в DIXY 4015",
		"28.01.2026 28.01.2026 -20.00 ₽ -20.00 ₽ Оплата в LENTA 4015",
	})

	require.Len(t, txs, 1)
	assert.Contains(t, txs[0].Description, "LENTA")
}

func TestTBankContinuation(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"SANKT-PETERBU RUS", true},
		{"+79992182326", true},
		{"договор 5651052226", true},
		{"", false},
		{"28.01.2026 28.01.2026 ...", false},
		{"Дата и время операции", false},
		{"АО «ТБанк» универсальная лицензия", false},
		{"123", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, tbankContinuation(tt.line))
		})
	}
}

func TestTBankTimeLine(t *testing.T) {
	for _, line := range []string{
		"18:30 18:45 SANKT-PETERBU RUS",
		"17:51 18:06 N3044 g. Sankt-Pete RUS",
		"10:07 10:08 номеру телефона",
		"10:07 10:08",
	} {
		m := tbankTime.FindStringSubmatch(line)
		require.NotNil(t, m, line)
		assert.NotEmpty(t, m[1])
		assert.NotEmpty(t, m[2])
	}
}

func TestTBankScenarioNonBreakingSpaces(t *testing.T) {
	doc := TextDocument("28.01.2026 28.01.2026 -1\u00a0382.63 ₽ -1\u00a0382.63 ₽ Оплата в LENTA-0010 4015\n" +
		"18:30 18:45 SANKT-PETERBU RUS")

	st, err := NewTBankParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	tx := st.Transactions[0]
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-1382.63")), "got %s", tx.Amount)
	assert.Equal(t, "4015", tx.CardNumber)
	assert.Equal(t, time.Date(2026, 1, 28, 18, 30, 0, 0, time.UTC), tx.Timestamp)
}

// digitGap matches a space between two digits.
var digitGap = regexp.MustCompile(`(\d) (\d)`)

// withNonBreakingGroups swaps the spaces between digits for U+00A0, the way
// some PDF producers group thousands.
func withNonBreakingGroups(text string) string {
	return digitGap.ReplaceAllString(text, "$1\u00a0$2")
}

func TestParsersWithNonBreakingGroups(t *testing.T) {
	tests := []struct {
		name    string
		parser  Parser
		text    string
		count   int
		income  string
		expense string
	}{
		{"T-Bank", NewTBankParser(), tbankStatement, 2, "5000.00", "1382.63"},
		{"Alfa-Bank", NewAlfaBankParser(), alfaStatement, 3, "50000.00", "1399.00"},
		{"Yandex-Bank", NewYandexParser(), yandexStatement, 3, "5000.00", "3199.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := withNonBreakingGroups(tt.text)
			require.Contains(t, text, "\u00a0")

			st, err := tt.parser.Parse(TextDocument(text))
			require.NoError(t, err)
			require.Len(t, st.Transactions, tt.count)
			assert.True(t, st.TotalIncome().Equal(decimal.RequireFromString(tt.income)), "income %s", st.TotalIncome())
			assert.True(t, st.TotalExpense().Equal(decimal.RequireFromString(tt.expense)), "expense %s", st.TotalExpense())
			require.NotNil(t, st.ReportedIncome)
			assert.Empty(t, st.Reconcile())
		})
	}
}

func TestTBankParseDocument(t *testing.T) {
	p := NewTBankParser()
	doc := TextDocument(tbankStatement)

	require.True(t, p.CanParse(doc))
	st, err := p.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, BankTBank, st.Bank)
	assert.Equal(t, "40817810700005933169", st.AccountNumber)
	assert.Equal(t, "5082383349", st.ContractNumber)
	require.NotNil(t, st.PeriodStart)
	require.NotNil(t, st.PeriodEnd)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *st.PeriodStart)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *st.PeriodEnd)
	require.NotNil(t, st.ReportedIncome)
	require.NotNil(t, st.ReportedExpense)
	assert.True(t, st.ReportedIncome.Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, st.ReportedExpense.Equal(decimal.RequireFromString("-1382.63")))

	require.Len(t, st.Transactions, 2)
	assert.True(t, st.TotalIncome().Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, st.TotalExpense().Equal(decimal.RequireFromString("1382.63")))
	assert.Empty(t, st.Reconcile())
}

func TestTBankMetadataMissing(t *testing.T) {
	st, err := NewTBankParser().Parse(TextDocument("Т-Банк\nничего полезного"))
	require.NoError(t, err)
	assert.Nil(t, st.PeriodStart)
	assert.Nil(t, st.PeriodEnd)
	assert.Empty(t, st.AccountNumber)
	assert.Empty(t, st.ContractNumber)
	assert.Nil(t, st.ReportedIncome)
	assert.NotNil(t, st.Transactions)
	assert.Empty(t, st.Transactions)
}

// groupThousands renders 1382.63 as "1 382.63".
func groupThousands(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String() + frac
}

func TestTBankRoundTrip(t *testing.T) {
	tests := []struct {
		when        time.Time
		amount      string
		description string
		card        string
	}{
		{time.Date(2026, 3, 5, 9, 41, 0, 0, time.UTC), "-1382.63", "Оплата в PYATEROCHKA 123", "4015"},
		{time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), "125000.00", "Пополнение через СБП", "0001"},
		{time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC), "-0.99", "Оплата в YANDEX.PLUS", "9999"},
	}

	p := NewTBankParser()
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			sign := "+"
			if amount.IsNegative() {
				sign = "-"
			}
			token := sign + groupThousands(amount)
			date := tt.when.Format("02.01.2006")
			clock := tt.when.Format("15:04")

			txs := p.parseLines([]string{
				fmt.Sprintf("%s %s %s ₽ %s ₽ %s %s", date, date, token, token, tt.description, tt.card),
				fmt.Sprintf("%s %s", clock, clock),
			})

			require.Len(t, txs, 1)
			assert.Equal(t, tt.when, txs[0].Timestamp)
			assert.True(t, amount.Equal(txs[0].Amount))
			assert.Equal(t, tt.description, txs[0].Description)
			assert.Equal(t, tt.card, txs[0].CardNumber)
		})
	}
}

package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alfaStatement = `АО «АЛЬФА-БАНК»
Выписка по счёту
Номер счета 40817810104560012345
За период с 01.02.2026 по 28.02.2026
Поступления 50 000,00 RUR
Расходы 1 399,00 RUR
Дата проводки Код операции Описание Сумма в валюте счета
03.02.2026 CRD_3KQ9PA Оплата товаров и услуг -1 250,00 RUR
Без НДС. Операция по карте: 220015++1234
место совершения: MOSCOW RUS
05.02.2026 B01 Перевод между своими счетами 50 000,00 RUR
07.02.2026 CRD_9ZZ1AB Оплата в KFC -149,00 RUR
Страница 1 из 2
`

func TestAlfaBankParseDocument(t *testing.T) {
	p := NewAlfaBankParser()
	doc := TextDocument(alfaStatement)

	require.True(t, p.CanParse(doc))
	st, err := p.Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, BankAlfa, st.Bank)
	assert.Equal(t, "40817810104560012345", st.AccountNumber)
	require.NotNil(t, st.PeriodStart)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *st.PeriodStart)
	require.NotNil(t, st.ReportedIncome)
	assert.True(t, st.ReportedIncome.Equal(decimal.RequireFromString("50000.00")))
	require.NotNil(t, st.ReportedExpense)
	assert.True(t, st.ReportedExpense.Equal(decimal.RequireFromString("1399.00")))

	require.Len(t, st.Transactions, 3)

	first := st.Transactions[0]
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("-1250.00")))
	assert.Equal(t, "Оплата товаров и услуг Без НДС. Операция по карте: 220015++1234 место совершения: MOSCOW RUS", first.Description)
	assert.Equal(t, "1234", first.CardNumber)
	require.NotNil(t, first.PostingTimestamp)
	assert.Equal(t, first.Timestamp, *first.PostingTimestamp)

	second := st.Transactions[1]
	assert.Equal(t, "Перевод между своими счетами", second.Description)
	assert.True(t, second.IsIncome())
	assert.True(t, second.IsInternalTransfer())
	assert.Empty(t, second.CardNumber)

	third := st.Transactions[2]
	assert.Equal(t, "Оплата в KFC", third.Description)
	assert.Equal(t, time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC), third.Timestamp)

	assert.Empty(t, st.Reconcile())
}

func TestAlfaBankContinuation(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"vat marker", "Без НДС.", true},
		{"operation marker", "Тип операции: покупка", true},
		{"mcc marker", "MCC5814", true},
		{"short text", "SHOKOLADNITSA MOSCOW", true},
		{"digits at the end", "Москва ул. Тверская 7", false},
		{"date inside", "списано 03.02.2026 банк", false},
		{"leading date", "03.02.2026 CRD_1 Оплата -1,00 RUR", false},
		{"noise", "Страница 2 из 2", false},
		{"too long", "Очень длинная строка описания которая точно длиннее пятидесяти символов", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alfaContinuation(tt.line))
		})
	}
}

func TestAlfaCardNumber(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Операция по карте: 220015++1234", "1234"},
		{"Операция по карта: 5559", "5559"},
		{"Операция по карте: 12", "12"},
		{"карте:4276380012345678", "5678"},
		{"без карты", ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, alfaCardNumber(tt.desc))
		})
	}
}

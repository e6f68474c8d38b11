package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
)

func sampleItems() []transactions.StoredTransaction {
	posting := time.Date(2026, 1, 29, 9, 0, 0, 0, time.UTC)
	original := decimal.RequireFromString("-15.50")
	groceries := statement.Groceries

	return []transactions.StoredTransaction{
		{
			ID: uuid.New(),
			Transaction: statement.Transaction{
				Timestamp:        time.Date(2026, 1, 28, 18, 30, 5, 0, time.UTC),
				PostingTimestamp: &posting,
				Amount:           decimal.RequireFromString("-1382.6"),
				Currency:         "RUB",
				Description:      "Оплата в LENTA-0010, SANKT-PETERBU",
				Category:         &groceries,
				CardNumber:       "4015",
				Bank:             "T-Bank",
			},
		},
		{
			ID: uuid.New(),
			Transaction: statement.Transaction{
				Timestamp:      time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC),
				Amount:         decimal.RequireFromString("-1400"),
				AmountOriginal: &original,
				Currency:       "RUB",
				Description:    "AMAZON WEB SERVICES",
				Bank:           "Alfa-Bank",
			},
		},
	}
}

func TestToRow(t *testing.T) {
	items := sampleItems()

	row := ToRow(items[0])
	assert.Equal(t, Row{
		Date:        "28.01.2026",
		Time:        "18:30:05",
		PostingDate: "29.01.2026",
		Amount:      "-1382.60",
		Currency:    "RUB",
		Category:    "Продукты",
		Description: "Оплата в LENTA-0010, SANKT-PETERBU",
		Card:        "4015",
		Bank:        "T-Bank",
	}, row)

	row = ToRow(items[1])
	assert.Empty(t, row.PostingDate)
	assert.Empty(t, row.Category)
	assert.Equal(t, "-15.50", row.AmountOriginal)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleItems()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "Оплата в LENTA-0010, SANKT-PETERBU", records[1][7])
	assert.Equal(t, "-15.50", records[2][4])
}

func TestWriteCSVDelimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleItems(), WithDelimiter(';')))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(Columns, ";"), header)
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestWriteCSVGenerated(t *testing.T) {
	gofakeit.Seed(7)
	var items []transactions.StoredTransaction
	for i := 0; i < 50; i++ {
		items = append(items, transactions.StoredTransaction{
			ID: uuid.New(),
			Transaction: statement.Transaction{
				Timestamp:   gofakeit.DateRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
				Amount:      decimal.NewFromFloat(gofakeit.Price(-5000, 5000)).Round(2),
				Currency:    "RUB",
				Description: gofakeit.Company() + `, "quoted"; ` + gofakeit.City(),
				Bank:        "Ozon-Bank",
			},
		})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(items)+1)
	for i, item := range items {
		assert.Equal(t, item.Description, records[i+1][7])
		assert.Equal(t, item.Amount.StringFixed(2), records[i+1][3])
	}
}

func TestWriteXLSX(t *testing.T) {
	items := sampleItems()
	items[0].Description = strings.Repeat("очень длинное описание ", 10)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, WriteXLSX(path, items))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "28.01.2026", rows[1][0])
	assert.Equal(t, "Продукты", rows[1][6])

	amount, err := f.GetCellValue(sheetName, "D3")
	require.NoError(t, err)
	assert.Equal(t, "-1400", amount)

	width, err := f.GetColWidth(sheetName, "H")
	require.NoError(t, err)
	assert.Equal(t, maxColumnWide, width)

	styleID, err := f.GetCellStyle(sheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteXLSXTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSXTo(&buf, sampleItems()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestTextWidth(t *testing.T) {
	assert.Equal(t, minColumnWide, textWidth(""))
	assert.Equal(t, 13.0, textWidth("Дата списан"))
	assert.Equal(t, maxColumnWide, textWidth(strings.Repeat("x", 100)))
}

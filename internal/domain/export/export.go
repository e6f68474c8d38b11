// Package export writes stored transactions to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
)

const (
	sheetName     = "Транзакции"
	maxColumnWide = 50.0
	minColumnWide = 8.0
)

// Columns lists the export header in order.
var Columns = []string{
	"Дата",
	"Время",
	"Дата списания",
	"Сумма",
	"Сумма в валюте операции",
	"Валюта",
	"Категория",
	"Описание",
	"Карта",
	"Банк",
}

// Row is one exported transaction.
type Row struct {
	Date           string `csv:"Дата"`
	Time           string `csv:"Время"`
	PostingDate    string `csv:"Дата списания"`
	Amount         string `csv:"Сумма"`
	AmountOriginal string `csv:"Сумма в валюте операции"`
	Currency       string `csv:"Валюта"`
	Category       string `csv:"Категория"`
	Description    string `csv:"Описание"`
	Card           string `csv:"Карта"`
	Bank           string `csv:"Банк"`
}

// ToRow formats a stored transaction for export.
func ToRow(item transactions.StoredTransaction) Row {
	row := Row{
		Date:        item.Timestamp.Format("02.01.2006"),
		Time:        item.Timestamp.Format("15:04:05"),
		Amount:      item.Amount.StringFixed(2),
		Currency:    item.Currency,
		Description: item.Description,
		Card:        item.CardNumber,
		Bank:        item.Bank,
	}
	if item.PostingTimestamp != nil {
		row.PostingDate = item.PostingTimestamp.Format("02.01.2006")
	}
	if item.AmountOriginal != nil {
		row.AmountOriginal = item.AmountOriginal.StringFixed(2)
	}
	if item.HasCategory() {
		row.Category = item.Category.Label()
	}
	return row
}

// CSVOption configures WriteCSV.
type CSVOption func(*csv.Writer)

// WithDelimiter sets the field separator, ';' for spreadsheet locales that
// use a decimal comma.
func WithDelimiter(r rune) CSVOption {
	return func(w *csv.Writer) { w.Comma = r }
}

// WriteCSV writes a header row followed by one row per transaction.
func WriteCSV(w io.Writer, items []transactions.StoredTransaction, opts ...CSVOption) error {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, ToRow(item))
	}

	cw := csv.NewWriter(w)
	for _, opt := range opts {
		opt(cw)
	}
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the transactions to a single-sheet workbook at path.
func WriteXLSX(path string, items []transactions.StoredTransaction) error {
	f, err := buildWorkbook(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteXLSXTo streams the workbook to w.
func WriteXLSXTo(w io.Writer, items []transactions.StoredTransaction) error {
	f, err := buildWorkbook(items)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(items []transactions.StoredTransaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	widths := make([]float64, len(Columns))
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
		widths[i] = textWidth(c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		row := ToRow(item)
		values := []any{
			row.Date, row.Time, row.PostingDate,
			item.Amount.InexactFloat64(), nil,
			row.Currency, row.Category, row.Description, row.Card, row.Bank,
		}
		if item.AmountOriginal != nil {
			values[4] = item.AmountOriginal.InexactFloat64()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		for j, s := range []string{row.Date, row.Time, row.PostingDate, row.Amount, row.AmountOriginal,
			row.Currency, row.Category, row.Description, row.Card, row.Bank} {
			widths[j] = max(widths[j], textWidth(s))
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(sheetName, "A1", last+"1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("set width of %s: %w", col, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return f, nil
}

// textWidth estimates a column width for s, capped at maxColumnWide.
func textWidth(s string) float64 {
	w := float64(utf8.RuneCountInString(s)) + 2
	return min(max(w, minColumnWide), maxColumnWide)
}

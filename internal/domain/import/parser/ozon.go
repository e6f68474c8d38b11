package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Ozon Bank statements are tables with the columns
// Дата операции | Документ | Назначение платежа | Сумма операции.
// The date cell holds "DD.MM.YYYY HH:MM:SS" and the amount cell carries an
// explicit sign and a dot decimal separator.
var (
	ozonDate   = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`)
	ozonClock  = regexp.MustCompile(`(\d{2}:\d{2}:\d{2})`)
	ozonAmount = regexp.MustCompile(`([+\-]?)\s*(\d[\d\s]*\.\d{2})\s*₽`)

	ozonPeriod  = regexp.MustCompile(`Период выписки:\s*(\d{2}\.\d{2}\.\d{4})\s*[–\-]\s*(\d{2}\.\d{2}\.\d{4})`)
	ozonAccount = regexp.MustCompile(`№\s*(\d{20})`)
	ozonIncome  = regexp.MustCompile(`Итого зачислений за период:\s*([\d\s]+\.\d{2})\s*₽`)
	ozonExpense = regexp.MustCompile(`Итого списаний за период:\s*([\d\s]+\.\d{2})\s*₽`)
)

// ozonKeywords mark the purpose cell of a transaction row (lower-case).
var ozonKeywords = []string{"ozon", "товар", "заказ", "платеж", "перевод"}

// ozonHeaders are column titles repeated on every page.
var ozonHeaders = []string{"Дата операции", "Назначение"}

var errNotTransactionRow = errors.New("not a transaction row")

// OzonParser reads Ozon Bank statements from extracted tables.
type OzonParser struct {
	opts      Options
	signature *sniffer.Signature
}

// NewOzonParser creates an Ozon Bank parser.
func NewOzonParser(opts ...Option) *OzonParser {
	return &OzonParser{
		opts:      buildOptions(opts),
		signature: sniffer.NewSignature("озон банк", "ozon банк", "ozon bank", "ооо «озон банк»"),
	}
}

func (p *OzonParser) Bank() string { return BankOzon }

func (p *OzonParser) CanParse(doc *Document) bool {
	return p.signature.Matches(doc.FirstPageText())
}

func (p *OzonParser) Parse(doc *Document) (*statement.Statement, error) {
	st := statement.New(BankOzon)
	for _, table := range doc.Tables() {
		st.Transactions = append(st.Transactions, p.parseTable(table)...)
	}

	text := doc.FullText()
	st.PeriodStart, st.PeriodEnd = findPeriod(ozonPeriod, text)
	st.AccountNumber = findString(ozonAccount, text)
	st.ReportedIncome = findAmount(ozonIncome, text, 1)
	st.ReportedExpense = findAmount(ozonExpense, text, 1)
	return st, nil
}

func (p *OzonParser) parseTable(table Table) []statement.Transaction {
	var txs []statement.Transaction
	for _, row := range table {
		if len(row) < 4 {
			continue
		}
		tx, err := p.parseRow(row)
		if err != nil {
			continue
		}
		txs = append(txs, tx)
	}
	return txs
}

func (p *OzonParser) parseRow(row []*string) (statement.Transaction, error) {
	var dateTok, clockTok, desc, amountCell string
	for _, c := range row {
		cell := cellText(c)

		if dateTok == "" {
			if m := ozonDate.FindStringSubmatch(cell); m != nil {
				dateTok = m[1]
				if cm := ozonClock.FindStringSubmatch(cell); cm != nil {
					clockTok = cm[1]
				}
			}
		}

		if containsAny(strings.ToLower(cell), ozonKeywords) && len([]rune(cell)) > len([]rune(desc)) {
			desc = cell
		}

		if ozonAmount.MatchString(cell) {
			amountCell = cell
		}
	}

	if dateTok == "" || desc == "" || containsAny(desc, ozonHeaders) {
		return statement.Transaction{}, errNotTransactionRow
	}

	ts, err := money.CombineDateTime(dateTok, clockTok)
	if err != nil {
		return statement.Transaction{}, err
	}

	amount, ok := ozonParseAmount(amountCell)
	if !ok {
		for _, c := range row {
			if amount, ok = ozonParseAmount(cellText(c)); ok {
				break
			}
		}
	}
	if !ok {
		return statement.Transaction{}, errNotTransactionRow
	}

	desc = collapseSpaces(desc)
	if desc == "" {
		return statement.Transaction{}, errNotTransactionRow
	}

	posting := ts
	return statement.Transaction{
		Timestamp:        ts,
		PostingTimestamp: &posting,
		Amount:           amount,
		Currency:         p.opts.Currency,
		Description:      desc,
		Bank:             BankOzon,
	}, nil
}

// ozonParseAmount reads the first "±N NNN.NN ₽" token from a cell.
func ozonParseAmount(cell string) (decimal.Decimal, bool) {
	m := ozonAmount.FindStringSubmatch(money.NormalizeSpaces(cell))
	if m == nil {
		return decimal.Zero, false
	}
	value, err := money.ParseAmount(m[2])
	if err != nil {
		return decimal.Zero, false
	}
	if m[1] == "-" {
		value = value.Abs().Neg()
	}
	return value, true
}

func cellText(c *string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(money.NormalizeSpaces(*c))
}

package parser

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Alfa-Bank account statements end each operation line with the amount and
// the RUR code:
//
//	03.02.2026 CRD_3KQ9PA Оплата товаров и услуг -1 250,00 RUR
//	Без НДС. Операция по карте: 220015++1234
var (
	alfaLine = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+([A-Z0-9_]+)\s+(.+?)\s+(-?[\d\s]+,\d{2})\s*RUR\s*$`)
	alfaCard = regexp.MustCompile(`(?i)карт[аеы]?:\s*(\d+\+*\d*)`)
	digitRun = regexp.MustCompile(`\d+`)

	alfaPeriod  = regexp.MustCompile(`За период с (\d{2}\.\d{2}\.\d{4}) по (\d{2}\.\d{2}\.\d{4})`)
	alfaAccount = regexp.MustCompile(`Номер счета\s+(\d+)`)
	alfaIncome  = regexp.MustCompile(`Поступления\s+([\d\s]+,\d{2})\s*RUR`)
	alfaExpense = regexp.MustCompile(`Расходы\s+([\d\s]+,\d{2})\s*RUR`)
)

var alfaNoise = []string{
	"Дата проводки",
	"Код операции",
	"Описание",
	"Сумма",
	"в валюте счета",
	"Страница",
	"АЛЬФА-БАНК",
	"alfabank.ru",
	"Уполномоченное лицо",
	"подпись сотрудника",
	"Ф.И.О. сотрудника",
	"к/с",
	"ул. Каланч",
	"Москва, 107078",
	"+7 495",
	"mail@",
	"Т.Т. Трофимова",
}

var alfaContinuationMarkers = []string{
	"Без НДС",
	"операции:",
	"MCC",
	"место совершения",
}

// AlfaBankParser reads Alfa-Bank account statements.
type AlfaBankParser struct {
	opts      Options
	signature *sniffer.Signature
	lines     *lineClassifier
}

// NewAlfaBankParser creates an Alfa-Bank parser.
func NewAlfaBankParser(opts ...Option) *AlfaBankParser {
	return &AlfaBankParser{
		opts:      buildOptions(opts),
		signature: sniffer.NewSignature("альфа-банк", "alfabank", "альфа банк"),
		lines: &lineClassifier{
			start:        alfaLine,
			noise:        alfaNoise,
			continuation: alfaContinuation,
		},
	}
}

func (p *AlfaBankParser) Bank() string { return BankAlfa }

func (p *AlfaBankParser) CanParse(doc *Document) bool {
	return p.signature.Matches(doc.FirstPageText())
}

func (p *AlfaBankParser) Parse(doc *Document) (*statement.Statement, error) {
	st := statement.New(BankAlfa)
	st.Transactions = p.parseLines(doc.Lines())

	text := doc.FullText()
	st.PeriodStart, st.PeriodEnd = findPeriod(alfaPeriod, text)
	st.AccountNumber = findString(alfaAccount, text)
	st.ReportedIncome = findAmount(alfaIncome, text, 1)
	st.ReportedExpense = findAmount(alfaExpense, text, 1)
	return st, nil
}

func (p *AlfaBankParser) parseLines(lines []string) []statement.Transaction {
	txs := make([]statement.Transaction, 0)
	for _, b := range scanBlocks(lines, p.lines) {
		tx, err := p.transaction(b)
		if err != nil {
			continue
		}
		txs = append(txs, tx)
	}
	return txs
}

func (p *AlfaBankParser) transaction(b block) (statement.Transaction, error) {
	g := b.groups
	date, err := money.ParseDate(g[1])
	if err != nil {
		return statement.Transaction{}, err
	}
	amount, err := money.ParseAmount(g[4])
	if err != nil {
		return statement.Transaction{}, err
	}
	desc := b.description(g[3])
	if desc == "" {
		return statement.Transaction{}, fmt.Errorf("empty description on %s", g[1])
	}

	posting := date
	return statement.Transaction{
		Timestamp:        date,
		PostingTimestamp: &posting,
		Amount:           amount,
		Currency:         p.opts.Currency,
		Description:      desc,
		CardNumber:       alfaCardNumber(desc),
		Bank:             BankAlfa,
	}, nil
}

// alfaContinuation accepts marker lines, and short lines that carry neither
// a date nor a trailing amount.
func alfaContinuation(line string) bool {
	if line == "" || leadingDate.MatchString(line) {
		return false
	}
	if containsAny(line, alfaNoise) {
		return false
	}
	if containsAny(line, alfaContinuationMarkers) {
		return true
	}

	runes := []rune(line)
	if len(runes) >= 50 || anyDate.MatchString(line) {
		return false
	}
	tail := runes[max(0, len(runes)-10):]
	for _, r := range tail {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// alfaCardNumber returns the last four digits of the card named in
// "карта: 220015++1234" style phrases.
func alfaCardNumber(desc string) string {
	m := alfaCard.FindStringSubmatch(desc)
	if m == nil {
		return ""
	}
	runs := digitRun.FindAllString(m[1], -1)
	if len(runs) == 0 {
		return ""
	}
	last := runs[len(runs)-1]
	if len(last) > 4 {
		return last[len(last)-4:]
	}
	return last
}

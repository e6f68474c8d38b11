package parser

import (
	"fmt"
	"regexp"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// T-Bank statements print one line per operation:
//
//	28.01.2026 28.01.2026 -1 382.63 ₽ -1 382.63 ₽ Оплата в LENTA-0010 4015
//	18:30 18:45 SANKT-PETERBU RUS
//
// The first amount is in the operation currency, the second in the card
// currency. The time line carries both times and trailing description text.
var (
	tbankLine = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(\d{2}\.\d{2}\.\d{4})\s+([+-][\d\s]+[.,]\d{2})\s*₽\s+([+-][\d\s]+[.,]\d{2})\s*₽\s+(.+?)\s+(\d{4})$`)
	tbankTime = regexp.MustCompile(`^(\d{2}:\d{2})\s+(\d{2}:\d{2})\s*(.*?)$`)

	tbankPeriod   = regexp.MustCompile(`за период с (\d{2}\.\d{2}\.\d{4}) по (\d{2}\.\d{2}\.\d{4})`)
	tbankAccount  = regexp.MustCompile(`Номер лицевого счета[:\s]+(\d+)`)
	tbankContract = regexp.MustCompile(`Номер договора[:\s]+(\d+)`)
	tbankTotals   = regexp.MustCompile(`(?s)Пополнения[:\s]+([+-]?[\d\s]+,\d{2})\s*₽.*?Расходы[:\s]+([+-]?[\d\s]+,\d{2})\s*₽`)
)

var tbankNoise = []string{
	"Дата и время",
	"операции",
	"списания",
	"АО «ТБанк»",
	"универсальная лицензия",
	"БИК",
	"Пополнения",
	"Расходы",
	"Итого",
}

// TBankParser reads T-Bank (Tinkoff) card statements.
type TBankParser struct {
	opts      Options
	signature *sniffer.Signature
	lines     *lineClassifier
}

// NewTBankParser creates a T-Bank parser.
func NewTBankParser(opts ...Option) *TBankParser {
	return &TBankParser{
		opts:      buildOptions(opts),
		signature: sniffer.NewSignature("т-банк", "тинькофф", "t-bank", "tinkoff", "тбанк", "tbank"),
		lines: &lineClassifier{
			start:        tbankLine,
			clock:        tbankTime,
			clockText:    true,
			continuation: tbankContinuation,
		},
	}
}

func (p *TBankParser) Bank() string { return BankTBank }

func (p *TBankParser) CanParse(doc *Document) bool {
	return p.signature.Matches(doc.FirstPageText())
}

func (p *TBankParser) Parse(doc *Document) (*statement.Statement, error) {
	st := statement.New(BankTBank)
	st.Transactions = p.parseLines(doc.Lines())

	text := doc.FullText()
	st.PeriodStart, st.PeriodEnd = findPeriod(tbankPeriod, text)
	st.AccountNumber = findString(tbankAccount, text)
	st.ContractNumber = findString(tbankContract, text)
	if m := tbankTotals.FindStringSubmatch(text); m != nil {
		st.ReportedIncome = amountPtr(m[1])
		st.ReportedExpense = amountPtr(m[2])
	}
	return st, nil
}

func (p *TBankParser) parseLines(lines []string) []statement.Transaction {
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

func (p *TBankParser) transaction(b block) (statement.Transaction, error) {
	g := b.groups
	ts, err := money.CombineDateTime(g[1], b.clockGroup(1))
	if err != nil {
		return statement.Transaction{}, err
	}
	posting, err := money.CombineDateTime(g[2], b.clockGroup(2))
	if err != nil {
		return statement.Transaction{}, err
	}
	original, err := money.ParseAmount(g[3])
	if err != nil {
		return statement.Transaction{}, err
	}
	amount, err := money.ParseAmount(g[4])
	if err != nil {
		return statement.Transaction{}, err
	}
	desc := b.description(g[5])
	if desc == "" {
		return statement.Transaction{}, fmt.Errorf("empty description on %s", g[1])
	}

	tx := statement.Transaction{
		Timestamp:        ts,
		PostingTimestamp: &posting,
		Amount:           amount,
		Currency:         p.opts.Currency,
		Description:      desc,
		CardNumber:       g[6],
		Bank:             BankTBank,
	}
	if !original.Equal(amount) {
		tx.AmountOriginal = &original
	}
	return tx, nil
}

// tbankContinuation accepts any line that is not a date-led line, a page
// number or one of the header and footer fragments.
func tbankContinuation(line string) bool {
	if line == "" || leadingDate.MatchString(line) {
		return false
	}
	if containsAny(line, tbankNoise) {
		return false
	}
	return !digitsOnly.MatchString(line)
}

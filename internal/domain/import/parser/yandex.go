package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Yandex Bank statements put the description before the dates and the time
// on its own line:
//
//	Оплата товаров YANDEX.MARKET 14.01.2026 15.01.2026 *7781 –2 399,00 ₽ –2 399,00 ₽
//	в 13:05
var (
	yandexLine = regexp.MustCompile(`^(.+?)\s+(\d{2}\.\d{2}\.\d{4})\s+(\d{2}\.\d{2}\.\d{4})\s+(\*\d{4})?\s*([+–\-]?[\d\s]+,\d{2})\s*₽\s+([+–\-]?[\d\s]+,\d{2})\s*₽\s*$`)
	yandexTime = regexp.MustCompile(`^в\s+(\d{2}:\d{2})\s*$`)

	// patronymics end person-to-person transfer descriptions ("Андреевич П.")
	patronymic = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:ович|евич|ьич|овна|евна|ична)(?:[^\p{L}]|$)`)

	yandexPeriod   = regexp.MustCompile(`за период с (\d{2}\.\d{2}\.\d{4}) по (\d{2}\.\d{2}\.\d{4})`)
	yandexAccount  = regexp.MustCompile(`открыт счёт\s+(\d+)`)
	yandexContract = regexp.MustCompile(`(?i)договор\s*№\s*([A-ZА-Я0-9]+)`)
	yandexIncome   = regexp.MustCompile(`Всего приходных операций\s*([+]?[\d\s]+,\d{2})\s*₽`)
	yandexExpense  = regexp.MustCompile(`Всего расходных операций\s*([–\-]?[\d\s]+,\d{2})\s*₽`)
)

var yandexNoise = []string{
	"Описание операции",
	"Дата и время",
	"Дата обработки",
	"Сумма в валюте",
	"операции",
	"Договора",
	"МСК",
	"Карта",
	"Страница",
	"Продолжение на",
	"Входящий остаток",
	"Исходящий остаток",
	"Всего расходных",
	"Всего приходных",
	"С уважением",
	"Начальник отдела",
	"платёжным картам",
	"АО «Яндекс Банк»",
	"Яндекс Банк",
}

var yandexContinuationMarkers = []string{"Банк", "YANDEX", "MARKET", "AFISHA"}

// YandexParser reads Yandex Bank card statements.
type YandexParser struct {
	opts      Options
	signature *sniffer.Signature
	lines     *lineClassifier
}

// NewYandexParser creates a Yandex Bank parser.
func NewYandexParser(opts ...Option) *YandexParser {
	return &YandexParser{
		opts:      buildOptions(opts),
		signature: sniffer.NewSignature("яндекс банк", "yandex bank", "bank.yandex"),
		lines: &lineClassifier{
			start:        yandexLine,
			noise:        yandexNoise,
			clock:        yandexTime,
			lastClock:    true,
			continuation: yandexContinuation,
		},
	}
}

func (p *YandexParser) Bank() string { return BankYandex }

func (p *YandexParser) CanParse(doc *Document) bool {
	return p.signature.Matches(doc.FirstPageText())
}

func (p *YandexParser) Parse(doc *Document) (*statement.Statement, error) {
	st := statement.New(BankYandex)
	st.Transactions = p.parseLines(doc.Lines())

	text := doc.FullText()
	st.PeriodStart, st.PeriodEnd = findPeriod(yandexPeriod, text)
	st.AccountNumber = findString(yandexAccount, text)
	st.ContractNumber = findString(yandexContract, text)
	st.ReportedIncome = findAbsAmount(yandexIncome, text)
	st.ReportedExpense = findAbsAmount(yandexExpense, text)
	return st, nil
}

func (p *YandexParser) parseLines(lines []string) []statement.Transaction {
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

func (p *YandexParser) transaction(b block) (statement.Transaction, error) {
	g := b.groups
	ts, err := money.CombineDateTime(g[2], b.clockGroup(1))
	if err != nil {
		return statement.Transaction{}, err
	}
	posting, err := money.ParseDate(g[3])
	if err != nil {
		return statement.Transaction{}, err
	}
	amount, err := money.ParseAmount(g[6])
	if err != nil {
		return statement.Transaction{}, err
	}
	desc := b.description(g[1])
	if desc == "" {
		return statement.Transaction{}, fmt.Errorf("empty description on %s", g[2])
	}

	return statement.Transaction{
		Timestamp:        ts,
		PostingTimestamp: &posting,
		Amount:           amount,
		Currency:         p.opts.Currency,
		Description:      desc,
		CardNumber:       strings.TrimPrefix(g[4], "*"),
		Bank:             BankYandex,
	}, nil
}

// yandexContinuation only accepts lines carrying a known marker. Anything
// else ends the block, since descriptions here rarely wrap.
func yandexContinuation(line string) bool {
	if line == "" || datePair.MatchString(line) || yandexTime.MatchString(line) {
		return false
	}
	if containsAny(line, yandexNoise) {
		return false
	}
	return containsAny(line, yandexContinuationMarkers) || patronymic.MatchString(line)
}

package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Bank identifiers stamped on parsed transactions.
const (
	BankTBank  = "T-Bank"
	BankAlfa   = "Alfa-Bank"
	BankYandex = "Yandex-Bank"
	BankOzon   = "Ozon-Bank"
)

var (
	ErrFormatNotRecognized = errors.New("statement format not recognized")
	ErrUnknownBank         = errors.New("unknown bank")
)

// Parser turns one vendor's statement layout into a Statement.
type Parser interface {
	// Bank returns the identifier stamped on transactions.
	Bank() string
	// CanParse sniffs the first page for vendor markers.
	CanParse(doc *Document) bool
	// Parse never fails on individual lines; unparseable lines are dropped.
	Parse(doc *Document) (*statement.Statement, error)
}

// Options configure parser construction.
type Options struct {
	Currency string
}

// Option configures a parser.
type Option func(*Options)

// WithCurrency sets the home currency stamped on transactions.
func WithCurrency(code string) Option {
	return func(o *Options) {
		if code != "" {
			o.Currency = code
		}
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Currency: money.DefaultCurrency}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Registry selects a parser for a document. Parsers are probed in
// registration order and the first match wins.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry probing parsers in the given order.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns the built-in vendor parsers in priority order.
func DefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(
		NewTBankParser(opts...),
		NewAlfaBankParser(opts...),
		NewYandexParser(opts...),
		NewOzonParser(opts...),
	)
}

// Parsers returns the registered parsers in probe order.
func (r *Registry) Parsers() []Parser {
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// Banks returns the bank identifiers in probe order.
func (r *Registry) Banks() []string {
	banks := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		banks = append(banks, p.Bank())
	}
	return banks
}

// Detect returns the first parser whose signature matches the first page.
func (r *Registry) Detect(doc *Document) (Parser, error) {
	for _, p := range r.parsers {
		if p.CanParse(doc) {
			return p, nil
		}
	}
	return nil, ErrFormatNotRecognized
}

// Lookup resolves an explicit bank choice such as "tbank", "Alfa-Bank" or "ozon".
func (r *Registry) Lookup(bank string) (Parser, error) {
	want := bankKey(bank)
	if want == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownBank)
	}
	for _, p := range r.parsers {
		key := bankKey(p.Bank())
		if key == want || strings.TrimSuffix(key, "bank") == want {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBank, bank)
}

func bankKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

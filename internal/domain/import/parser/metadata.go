package parser

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Metadata lookups are best-effort: a miss or a malformed value leaves the
// field unset.

func findString(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func findPeriod(re *regexp.Regexp, text string) (start, end *time.Time) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	s, errStart := money.ParseDate(m[1])
	e, errEnd := money.ParseDate(m[2])
	if errStart != nil || errEnd != nil {
		return nil, nil
	}
	return &s, &e
}

func findAmount(re *regexp.Regexp, text string, group int) *decimal.Decimal {
	m := re.FindStringSubmatch(text)
	if m == nil || group >= len(m) {
		return nil
	}
	return amountPtr(m[group])
}

func findAbsAmount(re *regexp.Regexp, text string) *decimal.Decimal {
	d := findAmount(re, text, 1)
	if d == nil {
		return nil
	}
	abs := d.Abs()
	return &abs
}

func amountPtr(token string) *decimal.Decimal {
	d, err := money.ParseAmount(token)
	if err != nil {
		return nil
	}
	return &d
}

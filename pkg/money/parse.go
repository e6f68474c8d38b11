package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrParseFailure is returned when an amount or date token is malformed.
var ErrParseFailure = errors.New("parse failure")

// amountPattern accepts "+1 000.50", "-50 000,99", "1382.63 ₽", "– 10,00 RUR".
var amountPattern = regexp.MustCompile(`^([+\-]?)\s*(\d(?:[\d\s]*\d)?)[.,](\d{2})\s*(?:₽|RUR|RUB|руб\.?|\$|€)?$`)

var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u202f", " ",
	"\u2009", " ",
	"\u2013", "-",
	"\u2014", "-",
	"\u2212", "-",
)

var wideSpaceReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u202f", " ",
	"\u2009", " ",
)

// NormalizeSpaces replaces non-breaking, narrow and thin spaces with plain
// spaces. Regexp `\s` matches ASCII whitespace only.
func NormalizeSpaces(s string) string {
	return wideSpaceReplacer.Replace(s)
}

// ParseAmount converts a statement amount token to an exact decimal.
// Group separators may be regular, non-breaking or narrow spaces. The decimal
// separator is "," or "." followed by exactly two digits. Unsigned tokens
// are returned as positive values.
func ParseAmount(token string) (decimal.Decimal, error) {
	normalized := strings.TrimSpace(spaceReplacer.Replace(token))
	m := amountPattern.FindStringSubmatch(normalized)
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrParseFailure, token)
	}

	digits := strings.Join(strings.Fields(m[2]), "")
	value, err := decimal.NewFromString(digits + "." + m[3])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", ErrParseFailure, token, err)
	}
	if m[1] == "-" {
		value = value.Neg()
	}
	return value, nil
}

// MustParseAmount is ParseAmount for known-good literals. It panics on error.
func MustParseAmount(token string) decimal.Decimal {
	d, err := ParseAmount(token)
	if err != nil {
		panic(err)
	}
	return d
}

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseDate parses a DD.MM.YYYY date with an optional HH:MM or HH:MM:SS time.
// The result carries no zone information and is expressed in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrParseFailure, s)
}

// CombineDateTime parses a date token and an optional HH:MM[:SS] time token.
func CombineDateTime(date, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return ParseDate(date)
	}
	return ParseDate(strings.TrimSpace(date) + " " + clock)
}

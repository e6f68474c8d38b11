// Package sniffer recognizes statement layouts from extracted first-page text.
// It matches vendor markers, infers the amount dialect and fingerprints the
// document header for import logs.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// Signature is a set of case-insensitive vendor markers.
// The matcher is built once and is safe for concurrent use.
type Signature struct {
	markers []string
	matcher *ahocorasick.Matcher
}

// NewSignature builds a signature from marker substrings.
func NewSignature(markers ...string) *Signature {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			lowered = append(lowered, m)
		}
	}
	return &Signature{
		markers: lowered,
		matcher: ahocorasick.NewStringMatcher(lowered),
	}
}

// Markers returns the lower-cased markers.
func (s *Signature) Markers() []string {
	out := make([]string, len(s.markers))
	copy(out, s.markers)
	return out
}

// Matches reports whether any marker appears in text, ignoring case.
func (s *Signature) Matches(text string) bool {
	if s == nil || len(s.markers) == 0 || text == "" {
		return false
	}
	return len(s.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))) > 0
}

// MatchedMarkers returns the markers found in text, in order of first appearance.
func (s *Signature) MatchedMarkers(text string) []string {
	if s == nil || len(s.markers) == 0 {
		return nil
	}
	hits := s.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	out := make([]string, 0, len(hits))
	for _, idx := range hits {
		out = append(out, s.markers[idx])
	}
	return out
}

// RegionalDialect describes how amounts are written in a document
type RegionalDialect struct {
	DecimalSeparator rune    // ',' or '.'
	CurrencyHint     string  // "RUB", "USD", "EUR" if detected
	Confidence       float64 // 0.0-1.0 confidence score
	Samples          int     // number of amount tokens inspected
}

var amountToken = regexp.MustCompile(`[+\-–]?\d[\d\s\x{00A0}]*([.,])\d{2}\s*(₽|RUR|RUB|\$|€)`)

// ProbeDialect inspects amount tokens carrying a currency suffix to infer
// the decimal separator and home currency of a document.
func ProbeDialect(text string) *RegionalDialect {
	dialect := &RegionalDialect{
		DecimalSeparator: ',',
		Confidence:       0.5,
	}

	commaHints, dotHints := 0, 0
	currencyHits := map[string]int{}
	for _, m := range amountToken.FindAllStringSubmatch(text, -1) {
		dialect.Samples++
		if m[1] == "," {
			commaHints++
		} else {
			dotHints++
		}
		currencyHits[currencyCode(m[2])]++
	}

	if dotHints > commaHints {
		dialect.DecimalSeparator = '.'
	}

	best := 0
	for code, n := range currencyHits {
		if n > best || (n == best && code < dialect.CurrencyHint) {
			dialect.CurrencyHint, best = code, n
		}
	}

	total := commaHints + dotHints
	if total > 0 {
		dominant := max(commaHints, dotHints)
		dialect.Confidence = float64(dominant) / float64(total)
	}
	return dialect
}

func currencyCode(symbol string) string {
	switch symbol {
	case "₽", "RUR", "RUB":
		return "RUB"
	case "$":
		return "USD"
	case "€":
		return "EUR"
	}
	return ""
}

// Fingerprint hashes the first non-empty lines of a page after normalizing
// them to lower-case letters and digits. Statements from the same layout and
// account share a fingerprint.
func Fingerprint(text string, lines int) string {
	var normalized []string
	for _, line := range strings.Split(text, "\n") {
		if len(normalized) >= lines {
			break
		}
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, line)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

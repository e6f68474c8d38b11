// Package categorization assigns spending categories to parsed transactions
// using an ordered table of case-insensitive pattern rules.
package categorization

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

// guardedPattern matches re unless the text right after the match starts
// with guard. RE2 has no lookahead, so the guard is checked separately.
type guardedPattern struct {
	re    *regexp.Regexp
	guard *regexp.Regexp
}

func (g guardedPattern) match(description string) bool {
	for _, loc := range g.re.FindAllStringIndex(description, -1) {
		if !g.guard.MatchString(description[loc[1]:]) {
			return true
		}
	}
	return false
}

type compiledRule struct {
	category statement.Category
	combined *regexp.Regexp // all unguarded alternatives, nil when none
	guarded  []guardedPattern
	patterns int
}

func (r compiledRule) match(description string) bool {
	if r.combined != nil && r.combined.MatchString(description) {
		return true
	}
	for _, g := range r.guarded {
		if g.match(description) {
			return true
		}
	}
	return false
}

// Engine evaluates rules in order and returns the first matching category.
// All patterns are compiled by NewEngine; the engine is immutable afterwards
// and safe for concurrent use.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles rules. An invalid pattern or an unknown category is
// reported as an error.
func NewEngine(rules []Rule) (*Engine, error) {
	e := &Engine{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, rule.Category)
		}
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Category, err)
		}
		e.rules = append(e.rules, compiled)
	}
	return e, nil
}

// NewDefaultEngine compiles DefaultRules.
func NewDefaultEngine() (*Engine, error) {
	return NewEngine(DefaultRules())
}

func compileRule(rule Rule) (compiledRule, error) {
	cr := compiledRule{category: rule.Category, patterns: len(rule.Patterns)}

	var plain []string
	for _, p := range rule.Patterns {
		if p.Expr == "" {
			return cr, fmt.Errorf("empty pattern")
		}
		if p.NotFollowedBy == "" {
			plain = append(plain, p.Expr)
			continue
		}
		re, err := regexp.Compile(`(?i)` + p.Expr)
		if err != nil {
			return cr, fmt.Errorf("compile %q: %w", p.Expr, err)
		}
		guard, err := regexp.Compile(`(?i)^(?:` + p.NotFollowedBy + `)`)
		if err != nil {
			return cr, fmt.Errorf("compile guard %q: %w", p.NotFollowedBy, err)
		}
		cr.guarded = append(cr.guarded, guardedPattern{re: re, guard: guard})
	}

	if len(plain) > 0 {
		re, err := regexp.Compile(`(?i)(?:` + strings.Join(plain, "|") + `)`)
		if err != nil {
			return cr, fmt.Errorf("compile: %w", err)
		}
		cr.combined = re
	}
	return cr, nil
}

// Match returns the category of the first rule matching description.
func (e *Engine) Match(description string) (statement.Category, bool) {
	for _, r := range e.rules {
		if r.match(description) {
			return r.category, true
		}
	}
	return "", false
}

// MatchAll returns every matching category in rule order.
func (e *Engine) MatchAll(description string) []statement.Category {
	var out []statement.Category
	for _, r := range e.rules {
		if r.match(description) {
			out = append(out, r.category)
		}
	}
	return out
}

// Categorize returns the category for tx, or Other when no rule matches.
// An existing category on tx is ignored.
func (e *Engine) Categorize(tx statement.Transaction) statement.Category {
	if c, ok := e.Match(tx.Description); ok {
		return c
	}
	return statement.Other
}

// CategorizeAll assigns a category to every uncategorized transaction and
// returns how many were assigned. Categorized transactions are left alone,
// so a second call is a no-op.
func (e *Engine) CategorizeAll(txs []statement.Transaction) int {
	assigned := 0
	for i := range txs {
		if txs[i].HasCategory() {
			continue
		}
		txs[i].SetCategory(e.Categorize(txs[i]))
		assigned++
	}
	return assigned
}

// Recategorize re-runs the rules on a category-cleared copy of tx and
// reports whether the result should replace the stored category. Only
// Transfers and Other are ever replaced, and only by something more specific.
func (e *Engine) Recategorize(tx statement.Transaction) (statement.Category, bool) {
	if !tx.HasCategory() {
		return e.Categorize(tx), true
	}

	current := *tx.Category
	next := e.Categorize(tx.WithoutCategory())
	switch current {
	case statement.Transfers:
		return next, next != statement.Transfers && next != statement.Other
	case statement.Other:
		return next, next != statement.Other
	default:
		return current, false
	}
}

// RuleSummary describes a compiled rule.
type RuleSummary struct {
	Category statement.Category
	Patterns int
}

// Rules lists the compiled rules in evaluation order.
func (e *Engine) Rules() []RuleSummary {
	out := make([]RuleSummary, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, RuleSummary{Category: r.category, Patterns: r.patterns})
	}
	return out
}

// RuleCount returns the number of compiled rules.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

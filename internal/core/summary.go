package core

import (
	"sort"
	"strings"
)

// CategoryAmount represents spending aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary holds totals derived from a transaction list: total income and
// per-category expense totals (absolute values). It has no identity of its
// own and must always be recomputed from its source transactions.
type Summary struct {
	Income     Money
	ByCategory []CategoryAmount // sorted by name for deterministic output
}

// ComputeSummary aggregates an arbitrary transaction list into a Summary.
//
// Income is the sum of amounts on income transactions (category "Income" or
// positive amount by convention). Every other category accumulates the
// absolute value of its negative amounts. The function is pure and
// order-independent; an empty input yields a zero-valued summary.
func ComputeSummary(txs []Transaction) Summary {
	var income int64
	totals := make(map[string]int64)

	for _, t := range txs {
		if t.IsIncome() {
			income += t.Amount.Cents
			continue
		}
		if t.Amount.Cents >= 0 {
			continue
		}
		name := canonicalCategory(t.Category)
		totals[name] += -t.Amount.Cents
	}

	byCategory := make([]CategoryAmount, 0, len(totals))
	for name, cents := range totals {
		byCategory = append(byCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(byCategory, func(i, j int) bool {
		return byCategory[i].Name < byCategory[j].Name
	})

	return Summary{
		Income:     Money{Cents: income},
		ByCategory: byCategory,
	}
}

// CategoryTotal returns the expense total for a category, matched
// case-insensitively. Unknown categories return zero.
func (s Summary) CategoryTotal(name string) Money {
	for _, ca := range s.ByCategory {
		if strings.EqualFold(ca.Name, strings.TrimSpace(name)) {
			return ca.Amount
		}
	}
	return Money{}
}

// TotalExpenses returns the sum of all per-category expense totals.
func (s Summary) TotalExpenses() Money {
	var total int64
	for _, ca := range s.ByCategory {
		total += ca.Amount.Cents
	}
	return Money{Cents: total}
}

// canonicalCategory trims whitespace and normalizes the well-known bucket
// names to their canonical capitalization so that "essentials" and
// "Essentials" aggregate together. User-defined categories keep their
// original spelling.
func canonicalCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, known := range []string{CategoryIncome, CategoryEssentials, CategoryWants, CategorySavings} {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	return trimmed
}

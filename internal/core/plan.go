package core

import (
	"fmt"
	"iter"
)

// BucketPlan is the target-versus-actual comparison for one allocation
// bucket.
type BucketPlan struct {
	Name   string
	Ratio  int   // percentage of income allocated to this bucket
	Target Money // income * ratio / 100, half-up rounded
	Actual Money // spent (absolute value) in this bucket
	Delta  Money // Target - Actual; negative means overspent
}

// Plan compares actual spending against the ratio allocation of income.
// Like Summary it is purely derived and never stored.
type Plan struct {
	Income  Money
	Buckets []BucketPlan // fixed order: Essentials, Wants, Savings
	Other   Money        // spend in categories outside the three buckets
}

// Overspent reports whether the bucket's actual spend exceeds its target.
func (b BucketPlan) Overspent() bool {
	return b.Delta.Cents < 0
}

// ComputePlan derives an allocation plan from a summary and a ratio
// configuration. All arithmetic is in integer cents, so zero income simply
// yields zero targets with delta = -actual; no division by zero or float
// artifacts are possible.
func ComputePlan(s Summary, r Ratios) Plan {
	buckets := []BucketPlan{
		{Name: CategoryEssentials, Ratio: r.Essentials},
		{Name: CategoryWants, Ratio: r.Wants},
		{Name: CategorySavings, Ratio: r.Savings},
	}

	for i := range buckets {
		buckets[i].Target = targetFor(s.Income, buckets[i].Ratio)
		buckets[i].Actual = s.CategoryTotal(buckets[i].Name)
		buckets[i].Delta = Money{Cents: buckets[i].Target.Cents - buckets[i].Actual.Cents}
	}

	var other int64
	for _, ca := range s.ByCategory {
		if ca.Name == CategoryEssentials || ca.Name == CategoryWants || ca.Name == CategorySavings {
			continue
		}
		other += ca.Amount.Cents
	}

	return Plan{
		Income:  s.Income,
		Buckets: buckets,
		Other:   Money{Cents: other},
	}
}

// targetFor computes income*ratio/100 in cents with half-up rounding.
func targetFor(income Money, ratio int) Money {
	if income.Cents <= 0 || ratio <= 0 {
		return Money{}
	}
	return Money{Cents: (income.Cents*int64(ratio) + 50) / 100}
}

// overspendTolerancePercent is the slack before an over-target bucket is
// flagged; small overages are noise, not advice material.
const overspendTolerancePercent = 5

// Suggestions returns a lazy, finite, restartable sequence of human-readable
// advice strings for the plan. Iteration can stop early and be restarted;
// each restart yields the same sequence. Wording and thresholds are
// presentation policy, not a stable contract.
func (p Plan) Suggestions() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, b := range p.Buckets {
			tolerance := b.Target.Cents * overspendTolerancePercent / 100
			switch {
			case b.Actual.Cents > b.Target.Cents+tolerance:
				over := Money{Cents: b.Actual.Cents - b.Target.Cents}
				if !yield(fmt.Sprintf("You are over your %s target by %s — consider trimming spending there.", b.Name, over)) {
					return
				}
			case b.Target.Cents > 0 && b.Actual.Cents == 0:
				if !yield(fmt.Sprintf("Your %s allocation of %s is unused this period.", b.Name, b.Target)) {
					return
				}
			case b.Target.Cents > 0 && b.Actual.Cents*2 < b.Target.Cents:
				if !yield(fmt.Sprintf("%s spending is well under target (%s of %s) — you have room to reallocate.", b.Name, b.Actual, b.Target)) {
					return
				}
			}
		}
		if p.Other.Cents > 0 {
			if !yield(fmt.Sprintf("Uncategorized spending of %s is not counted toward your plan — assign it to %s, %s, or %s.", p.Other, CategoryEssentials, CategoryWants, CategorySavings)) {
				return
			}
		}
	}
}

// ComputeSuggestions collects the suggestion sequence into a slice for
// callers that want the whole list at once (e.g. a JSON response). Returns
// an empty non-nil slice when there is nothing to flag.
func ComputeSuggestions(p Plan) []string {
	out := []string{}
	for s := range p.Suggestions() {
		out = append(out, s)
	}
	return out
}

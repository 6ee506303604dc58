// Package voice interprets free-text transaction commands produced by
// speech dictation.
//
// The parser is a best-effort heuristic: ordered regex attempts extract an
// action, category, description and amount, and a correction pass rescales
// amounts that dictation commonly mishears ("$5.00" for "five thousand
// dollars"). It is not a grammar and its exact output is not a stable
// contract; callers must treat the result as a proposal to confirm.
package voice

import (
	"errors"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"budgetfriendly/internal/core"
)

// Action is the operation a command asks for.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Command is the structured interpretation of one utterance.
type Command struct {
	Action      Action
	Category    string
	Description string
	Amount      core.Money // signed: negative for expenses, positive for income
	// Confidence is a rough 0..1 score of how many expected fields were
	// recognized. Presentation hint only.
	Confidence float64
}

// ErrNoCommand is returned when no action keyword can be recognized.
var ErrNoCommand = errors.New("no recognizable command")

// maxCategoryDistance is the Levenshtein budget for fuzzy category matching;
// dictation tends to mangle at most a couple of characters ("essental").
const maxCategoryDistance = 2

var (
	// Amounts: "$150", "150 dollars", "$12.50", "1,200".
	amountRe = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d{1,2})?)\s*(?:dollars?|bucks?)?`)

	// Magnitude words that dictation frequently detaches from the number
	// ("five thousand" arriving as "$5.00 thousand").
	thousandRe = regexp.MustCompile(`(?i)\b(thousand|grand|k)\b`)

	categoryRe    = regexp.MustCompile(`(?i)\b(?:to|in|into|from|under)\s+([a-z]+)\b`)
	descriptionRe = regexp.MustCompile(`(?i)\bfor\s+(.+?)(?:\s+(?:to|at|of)\s+)?\$?\d`)

	actionPatterns = []struct {
		re     *regexp.Regexp
		action Action
	}{
		{regexp.MustCompile(`(?i)\b(add|new|create|log|record|spent|spend)\b`), ActionAdd},
		{regexp.MustCompile(`(?i)\b(update|change|set|adjust)\b`), ActionUpdate},
		{regexp.MustCompile(`(?i)\b(delete|remove|drop|cancel)\b`), ActionDelete},
	}
)

// Parser resolves spoken categories against a known category list.
type Parser struct {
	categories []string
}

// NewParser builds a parser for the given category vocabulary. An empty list
// falls back to the conventional Income/Essentials/Wants/Savings buckets.
func NewParser(categories []string) *Parser {
	if len(categories) == 0 {
		categories = []string{
			core.CategoryIncome,
			core.CategoryEssentials,
			core.CategoryWants,
			core.CategorySavings,
		}
	}
	return &Parser{categories: categories}
}

// Parse interprets a single utterance. It never panics; input without a
// recognizable action returns ErrNoCommand.
func (p *Parser) Parse(input string) (Command, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Command{}, ErrNoCommand
	}

	cmd := Command{}
	fields := 0

	action, ok := matchAction(text)
	if !ok {
		return Command{}, ErrNoCommand
	}
	cmd.Action = action
	fields++

	if cat, ok := p.matchCategory(text); ok {
		cmd.Category = cat
		fields++
	}

	cents, ok := matchAmount(text)
	if ok {
		cmd.Amount = core.Money{Cents: cents}
		fields++
	}

	if desc, ok := matchDescription(text); ok {
		cmd.Description = desc
		fields++
	}

	// Expenses are stored negative; only an explicit Income category keeps
	// the positive sign.
	if cmd.Amount.Cents > 0 && !strings.EqualFold(cmd.Category, core.CategoryIncome) && !containsIncomeWord(text) {
		cmd.Amount.Cents = -cmd.Amount.Cents
	}

	expected := 4.0
	if cmd.Action == ActionDelete {
		expected = 3.0 // no amount expected for deletions
	}
	cmd.Confidence = float64(fields) / expected
	if cmd.Confidence > 1 {
		cmd.Confidence = 1
	}

	return cmd, nil
}

func matchAction(text string) (Action, bool) {
	for _, ap := range actionPatterns {
		if ap.re.MatchString(text) {
			return ap.action, true
		}
	}
	return "", false
}

// matchAmount extracts the first monetary amount and applies the
// misheard-magnitude correction: a small amount next to a "thousand"-class
// word is rescaled ("$5.00 thousand" -> $5000). The original heuristic had
// several mutually inconsistent special cases here; a single scale-word pass
// replaces them.
func matchAmount(text string) (int64, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return 0, false
	}
	if thousandRe.MatchString(text) && cents < 100000 {
		cents *= 1000
	}
	return cents, true
}

func (p *Parser) matchCategory(text string) (string, bool) {
	// Direct mention of a known category anywhere in the utterance wins.
	lower := strings.ToLower(text)
	for _, cat := range p.categories {
		if strings.Contains(lower, strings.ToLower(cat)) {
			return cat, true
		}
	}

	// Otherwise take the word after a preposition and fuzzy-match it.
	m := categoryRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return p.resolveCategory(m[1])
}

// resolveCategory fuzzy-matches a spoken word against the vocabulary.
func (p *Parser) resolveCategory(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", false
	}

	best := ""
	bestDist := maxCategoryDistance + 1
	for _, cat := range p.categories {
		d := levenshtein.ComputeDistance(word, strings.ToLower(cat))
		if d < bestDist {
			best = cat
			bestDist = d
		}
	}
	if bestDist > maxCategoryDistance {
		return "", false
	}
	return best, true
}

func matchDescription(text string) (string, bool) {
	if m := descriptionRe.FindStringSubmatch(text); m != nil {
		desc := strings.TrimSpace(m[1])
		if desc != "" {
			return desc, true
		}
	}
	// "for X" at end of utterance (no trailing amount)
	if idx := strings.LastIndex(strings.ToLower(text), " for "); idx >= 0 {
		desc := strings.TrimSpace(text[idx+5:])
		desc = strings.TrimRight(desc, ".!?")
		if desc != "" && !amountRe.MatchString(desc) {
			return desc, true
		}
	}
	return "", false
}

func containsIncomeWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range []string{"income", "salary", "paycheck", "earned", "deposit"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

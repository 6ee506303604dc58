package voice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"budgetfriendly/internal/core"
)

func TestParseAddExpense(t *testing.T) {
	p := NewParser(nil)
	cmd, err := p.Parse("add 150 dollars to wants for groceries")
	require.NoError(t, err)

	require.Equal(t, ActionAdd, cmd.Action)
	require.Equal(t, core.CategoryWants, cmd.Category)
	require.Equal(t, "groceries", cmd.Description)
	require.Equal(t, int64(-15000), cmd.Amount.Cents)
	require.InDelta(t, 1.0, cmd.Confidence, 0.001)
}

func TestParseActions(t *testing.T) {
	p := NewParser(nil)
	cases := []struct {
		in   string
		want Action
	}{
		{"add 20 to wants", ActionAdd},
		{"spent 20 on lunch", ActionAdd},
		{"record a new expense", ActionAdd},
		{"update the rent amount to 1300", ActionUpdate},
		{"change groceries in essentials to $200", ActionUpdate},
		{"delete the vet bill from essentials", ActionDelete},
		{"remove that transaction", ActionDelete},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			cmd, err := p.Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, cmd.Action)
		})
	}
}

func TestParseNoCommand(t *testing.T) {
	p := NewParser(nil)
	for _, in := range []string{"", "   ", "hello there", "what is my balance"} {
		_, err := p.Parse(in)
		require.ErrorIs(t, err, ErrNoCommand, "input %q", in)
	}
}

func TestParseIncomeKeepsSign(t *testing.T) {
	p := NewParser(nil)
	cmd, err := p.Parse("add $5 thousand to income for salary")
	require.NoError(t, err)

	require.Equal(t, core.CategoryIncome, cmd.Category)
	// misheard-magnitude correction: "$5 thousand" means 5000, not 5
	require.Equal(t, int64(500000), cmd.Amount.Cents)
	require.Equal(t, "salary", cmd.Description)
}

func TestParseMagnitudeNotAppliedToLargeAmounts(t *testing.T) {
	p := NewParser(nil)
	cmd, err := p.Parse("add 2,500 dollars to savings, a grand total")
	require.NoError(t, err)
	// already >= $1000: the "grand" nearby must not rescale it
	require.Equal(t, int64(-250000), cmd.Amount.Cents)
}

func TestParseFuzzyCategory(t *testing.T) {
	p := NewParser(nil)
	cases := []struct {
		in   string
		want string
	}{
		{"add 40 to savigns", core.CategorySavings},
		{"add 40 to essental", core.CategoryEssentials},
		{"add 40 to wnats", core.CategoryWants},
	}
	for _, tc := range cases {
		cmd, err := p.Parse(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, cmd.Category, "input %q", tc.in)
	}
}

func TestParseUnknownCategoryLeftEmpty(t *testing.T) {
	p := NewParser(nil)
	cmd, err := p.Parse("add 40 to xylophone")
	require.NoError(t, err)
	require.Empty(t, cmd.Category)
	require.Less(t, cmd.Confidence, 1.0)
}

func TestParseCustomCategories(t *testing.T) {
	p := NewParser([]string{"Pets", "Travel"})
	cmd, err := p.Parse("add 60 to travel for train tickets")
	require.NoError(t, err)
	require.Equal(t, "Travel", cmd.Category)
	require.Equal(t, int64(-6000), cmd.Amount.Cents)
}

func TestParseDeleteConfidence(t *testing.T) {
	p := NewParser(nil)
	cmd, err := p.Parse("delete the vet bill from essentials")
	require.NoError(t, err)
	require.Equal(t, ActionDelete, cmd.Action)
	require.Equal(t, core.CategoryEssentials, cmd.Category)
	// deletions are not expected to carry an amount
	require.InDelta(t, 2.0/3.0, cmd.Confidence, 0.001)
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

// Well-known categories. Transaction categories are free-form strings; these
// three (plus Income) are the conventional 50/30/20 allocation buckets.
const (
	CategoryIncome     = "Income"
	CategoryEssentials = "Essentials"
	CategoryWants      = "Wants"
	CategorySavings    = "Savings"
)

type (
	RepetitionTypes string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Ratios is the percentage split of income across the three allocation
	// buckets. Values are whole percentages and are not required to sum to
	// exactly 100.
	Ratios struct {
		Essentials int
		Wants      int
		Savings    int
	}

	// Transaction is a single dated, signed monetary entry within a budget.
	// Positive amounts are income, negative amounts are expenses.
	Transaction struct {
		ID          int64 // Database ID for operations; zero before creation
		BudgetID    string
		Date        Date
		Description string
		Amount      Money
		Category    string
		CategoryID  string
		Position    int // manual sort order within a category
	}

	// Budget groups transactions for one user and carries the ratio
	// configuration its plan is computed against.
	Budget struct {
		ID        string
		UserID    string
		Name      string
		Ratios    Ratios
		Color     string
		CreatedAt time.Time
	}

	// RecurringTransaction is a template that materializes ordinary
	// transactions on a schedule.
	RecurringTransaction struct {
		ID          int64
		BudgetID    string
		StartDate   Date
		EndDate     Date
		Every       RepetitionTypes
		Description string
		Amount      Money
		Category    string
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRatio     = errors.New("invalid ratio")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyBudgetID    = errors.New("empty budget id")
	ErrEmptyName        = errors.New("empty name")
)

// DefaultRatios returns the conventional 50/30/20 split.
func DefaultRatios() Ratios {
	return Ratios{Essentials: 50, Wants: 30, Savings: 20}
}

func (r Ratios) Validate() error {
	if r.Essentials < 0 || r.Wants < 0 || r.Savings < 0 {
		return ErrInvalidRatio
	}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsIncome reports whether the transaction counts toward total income:
// either explicitly categorized as Income, or a positive amount by
// convention.
func (t Transaction) IsIncome() bool {
	return strings.EqualFold(strings.TrimSpace(t.Category), CategoryIncome) || t.Amount.Cents > 0
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.BudgetID) == "" {
		return ErrEmptyBudgetID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := b.Ratios.Validate(); err != nil {
		return err
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if strings.TrimSpace(rt.BudgetID) == "" {
		return ErrEmptyBudgetID
	}
	if err := rt.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}

	// End date is optional; when present it must not precede the start date.
	if !rt.EndDate.IsZero() {
		if err := rt.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if rt.EndDate.Before(rt.StartDate.Time) {
			return errors.New("end date must be after start date")
		}
	}

	switch rt.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid repetition type")
	}

	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

package core

import (
	"strings"
	"time"
)

// DateLayout is the wire and form layout for expense dates.
const DateLayout = "2006-01-02"

const maxTitleLength = 200

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a persisted expense record owned by a single user.
	Expense struct {
		ID          string
		UserID      string
		Title       string
		Description string
		Notes       string
		Amount      Money
		Category    Category
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Draft carries the user-editable fields of an expense as submitted
	// by a form, before parsing.
	Draft struct {
		Title       string
		Description string
		Notes       string
		Amount      string
		Category    string
		Date        string
	}

	// Fields is a parsed and validated Draft.
	Fields struct {
		Title       string
		Description string
		Notes       string
		Amount      Money
		Category    Category
		Date        Date
	}
)

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Reason: "date is required"}
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as
// 2024-02-30 are rejected rather than normalized.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, &ValidationError{Field: "date", Reason: "date is required"}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "invalid date"}
	}
	return Date{Time: t}, nil
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return &ValidationError{Field: "amount", Reason: "amount must be greater than zero"}
	}
	return nil
}

// Validate parses every field of the draft and reports the first
// offending one.
func (d Draft) Validate() (Fields, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Fields{}, &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(title) > maxTitleLength {
		return Fields{}, &ValidationError{Field: "title", Reason: "title too long (max 200 characters)"}
	}

	cents, err := ParseDecimalToCents(d.Amount)
	if err != nil {
		return Fields{}, &ValidationError{Field: "amount", Reason: "amount must be a positive number"}
	}

	date, err := ParseDate(d.Date)
	if err != nil {
		return Fields{}, err
	}

	cat, ok := ParseCategory(d.Category)
	if !ok {
		return Fields{}, &ValidationError{Field: "category", Reason: "unknown category"}
	}

	return Fields{
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Notes:       strings.TrimSpace(d.Notes),
		Amount:      Money{Cents: cents},
		Category:    cat,
		Date:        date,
	}, nil
}

// Apply copies the mutable fields onto e.
func (f Fields) Apply(e *Expense) {
	e.Title = f.Title
	e.Description = f.Description
	e.Notes = f.Notes
	e.Amount = f.Amount
	e.Category = f.Category
	e.Date = f.Date
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Known() {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	return nil
}

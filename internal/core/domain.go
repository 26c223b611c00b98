package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending   TemplateStatus = "pending"
	StatusGenerated TemplateStatus = "generated"
	StatusPaid      TemplateStatus = "paid"
	StatusInactive  TemplateStatus = "inactive"
)

type (
	// TemplateStatus classifies a recurring template for a reporting period.
	TemplateStatus string

	// Date wraps time.Time; the zero value means "absent" for optional fields.
	Date struct {
		time.Time
	}

	// Money holds an amount in centavos.
	Money struct {
		Cents int64
	}

	// Expense is a concrete dated bill, optionally generated from a template.
	Expense struct {
		ID                   string
		Description          string
		Amount               Money
		DueDate              Date
		Paid                 bool
		PaymentDate          Date // set iff Paid
		Category             string
		RecurringTemplateID  string // empty when manually entered
		NotificationInterval int    // minutes between reminders
		CreatedAt            Date
		UpdatedAt            Date
	}

	// RecurringTemplate is a user-defined monthly billing rule. Instances are
	// materialized from it on demand, never automatically.
	RecurringTemplate struct {
		ID                   string
		Description          string
		Category             string
		ExpectedAmount       Money // refreshed to the last generated amount
		ClosingDay           int   // billing-cycle close, 1-31
		DueDay               int   // generated due date day, 1-31
		NotificationInterval int
		StartDate            Date // optional validity bound
		EndDate              Date // optional validity bound
		LastGeneratedDate    Date // absent until first generation
		CreatedAt            Date
		UpdatedAt            Date
	}

	Income struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
		Category    string
		// Provenance markers only; incomes carry no template back-reference.
		Recurring    bool
		RecurringDay int
		CreatedAt    Date
		UpdatedAt    Date
	}

	// RecurringIncome is the income-side template: a single day-of-month,
	// no validity window and no closing/due split.
	RecurringIncome struct {
		ID                string
		Description       string
		ExpectedAmount    Money
		Day               int
		LastGeneratedDate Date
		CreatedAt         Date
		UpdatedAt         Date
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDay         = errors.New("invalid day of month")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidDateBounds  = errors.New("start date after end date")
	ErrPaymentDateMissing = errors.New("paid expense without payment date")
	ErrPaymentDateSet     = errors.New("payment date on unpaid expense")
)

// NewDate builds a UTC midnight Date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the optional date is absent.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	y1, m1, day1 := d.Date()
	y2, m2, day2 := other.Date()
	return y1 == y2 && m1 == m2 && day1 == day2
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.DueDate.IsEmpty() {
		return errors.New("due date cannot be empty")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.NotificationInterval < 0 {
		return errors.New("negative notification interval")
	}
	// PaymentDate is set if and only if the expense is paid.
	if e.Paid && e.PaymentDate.IsEmpty() {
		return ErrPaymentDateMissing
	}
	if !e.Paid && !e.PaymentDate.IsEmpty() {
		return ErrPaymentDateSet
	}
	return nil
}

func (t RecurringTemplate) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.ExpectedAmount.Validate(); err != nil {
		return err
	}
	if t.ClosingDay < 1 || t.ClosingDay > 31 {
		return ErrInvalidDay
	}
	if t.DueDay < 1 || t.DueDay > 31 {
		return ErrInvalidDay
	}
	if t.NotificationInterval < 0 {
		return errors.New("negative notification interval")
	}
	if !t.StartDate.IsEmpty() && !t.EndDate.IsEmpty() && t.StartDate.After(t.EndDate.Time) {
		return ErrInvalidDateBounds
	}
	return nil
}

func (i Income) Validate() error {
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if i.Date.IsEmpty() {
		return errors.New("date cannot be empty")
	}
	if i.Recurring && (i.RecurringDay < 1 || i.RecurringDay > 31) {
		return ErrInvalidDay
	}
	return nil
}

func (ri RecurringIncome) Validate() error {
	if len(strings.TrimSpace(ri.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := ri.ExpectedAmount.Validate(); err != nil {
		return err
	}
	if ri.Day < 1 || ri.Day > 31 {
		return ErrInvalidDay
	}
	return nil
}

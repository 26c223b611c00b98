package core

import (
	"errors"
	"testing"
)

func validExpense() Expense {
	return Expense{
		Description: "electricity",
		Amount:      Money{Cents: 15000},
		DueDate:     NewDate(2024, 3, 10),
		Category:    "home",
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{"valid", func(e *Expense) {}, nil},
		{"empty description", func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(e *Expense) { e.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount.Cents = -10 }, ErrInvalidAmount},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"paid without payment date", func(e *Expense) { e.Paid = true }, ErrPaymentDateMissing},
		{"payment date without paid", func(e *Expense) { e.PaymentDate = NewDate(2024, 3, 11) }, ErrPaymentDateSet},
		{"paid with payment date", func(e *Expense) {
			e.Paid = true
			e.PaymentDate = NewDate(2024, 3, 11)
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	valid := RecurringTemplate{
		Description:    "credit card",
		Category:       "finance",
		ExpectedAmount: Money{Cents: 250000},
		ClosingDay:     5,
		DueDay:         15,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*RecurringTemplate)
		wantErr error
	}{
		{"closing day zero", func(r *RecurringTemplate) { r.ClosingDay = 0 }, ErrInvalidDay},
		{"closing day 32", func(r *RecurringTemplate) { r.ClosingDay = 32 }, ErrInvalidDay},
		{"due day zero", func(r *RecurringTemplate) { r.DueDay = 0 }, ErrInvalidDay},
		{"start after end", func(r *RecurringTemplate) {
			r.StartDate = NewDate(2024, 5, 1)
			r.EndDate = NewDate(2024, 4, 1)
		}, ErrInvalidDateBounds},
		{"only start date is fine", func(r *RecurringTemplate) { r.StartDate = NewDate(2024, 5, 1) }, nil},
		{"only end date is fine", func(r *RecurringTemplate) { r.EndDate = NewDate(2024, 5, 1) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	valid := Income{
		Description: "salary",
		Amount:      Money{Cents: 500000},
		Date:        NewDate(2024, 3, 5),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid income rejected: %v", err)
	}

	recurring := valid
	recurring.Recurring = true
	if err := recurring.Validate(); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("recurring income without day: err = %v, want %v", err, ErrInvalidDay)
	}
	recurring.RecurringDay = 5
	if err := recurring.Validate(); err != nil {
		t.Errorf("recurring income with day rejected: %v", err)
	}
}

func TestRecurringIncomeValidate(t *testing.T) {
	valid := RecurringIncome{Description: "salary", ExpectedAmount: Money{Cents: 500000}, Day: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid recurring income rejected: %v", err)
	}

	bad := valid
	bad.Day = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("day 0: err = %v, want %v", err, ErrInvalidDay)
	}
}

func TestDateSameMonth(t *testing.T) {
	if !NewDate(2024, 3, 1).SameMonth(NewDate(2024, 3, 31)) {
		t.Error("same month should match")
	}
	if NewDate(2024, 3, 1).SameMonth(NewDate(2023, 3, 1)) {
		t.Error("different year must not match")
	}
}

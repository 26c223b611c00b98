package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/store/memory"
)

func date(y int, m time.Month, d int) core.Date {
	return core.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestGenerator_GenerateExpense(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	gen := NewGenerator(ledger)
	ctx := context.Background()

	tpl, err := ledger.CreateTemplate(ctx, "u1", core.RecurringTemplate{
		Description:          "Cartão de crédito",
		Category:             "Cartão",
		ExpectedAmount:       core.Money{Cents: 80000},
		ClosingDay:           5,
		DueDay:               12,
		NotificationInterval: 30,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	amount := core.Money{Cents: 92350}
	expense, err := gen.GenerateExpense(ctx, "u1", tpl.ID, amount, date(2026, time.March, 15))
	if err != nil {
		t.Fatalf("GenerateExpense: %v", err)
	}

	if expense.Description != "Cartão de crédito" {
		t.Errorf("Description = %q, want template description", expense.Description)
	}
	if expense.Amount != amount {
		t.Errorf("Amount = %v, want %v", expense.Amount, amount)
	}
	if !expense.DueDate.SameDay(date(2026, time.March, 12)) {
		t.Errorf("DueDate = %v, want 2026-03-12", expense.DueDate)
	}
	if expense.Paid {
		t.Error("generated expense should start unpaid")
	}
	if expense.RecurringTemplateID != tpl.ID {
		t.Errorf("RecurringTemplateID = %q, want %q", expense.RecurringTemplateID, tpl.ID)
	}
	if expense.NotificationInterval != 30 {
		t.Errorf("NotificationInterval = %d, want 30", expense.NotificationInterval)
	}

	updated, err := ledger.GetTemplate(ctx, "u1", tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if updated.ExpectedAmount != amount {
		t.Errorf("template ExpectedAmount = %v, want %v", updated.ExpectedAmount, amount)
	}
	if !updated.LastGeneratedDate.SameDay(date(2026, time.March, 15)) {
		t.Errorf("template LastGeneratedDate = %v, want target date", updated.LastGeneratedDate)
	}
}

func TestGenerator_GenerateExpenseClampsDueDay(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	gen := NewGenerator(ledger)
	ctx := context.Background()

	tpl, err := ledger.CreateTemplate(ctx, "u1", core.RecurringTemplate{
		Description:    "Assinatura",
		Category:       "Serviços",
		ExpectedAmount: core.Money{Cents: 4990},
		ClosingDay:     25,
		DueDay:         31,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	// February has no day 31; the due date clamps to the 28th.
	expense, err := gen.GenerateExpense(ctx, "u1", tpl.ID, core.Money{Cents: 4990}, date(2026, time.February, 10))
	if err != nil {
		t.Fatalf("GenerateExpense: %v", err)
	}
	if !expense.DueDate.SameDay(date(2026, time.February, 28)) {
		t.Errorf("DueDate = %v, want 2026-02-28", expense.DueDate)
	}
}

func TestGenerator_GenerateExpenseMissingTemplate(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	gen := NewGenerator(ledger)

	_, err := gen.GenerateExpense(context.Background(), "u1", "missing", core.Money{Cents: 100}, date(2026, time.March, 15))
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("GenerateExpense = %v, want ErrTemplateNotFound", err)
	}
}

func TestGenerator_GenerateIncome(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	gen := NewGenerator(ledger)
	ctx := context.Background()

	ri, err := ledger.CreateRecurringIncome(ctx, "u1", core.RecurringIncome{
		Description:    "Salário",
		ExpectedAmount: core.Money{Cents: 500000},
		Day:            5,
	})
	if err != nil {
		t.Fatalf("CreateRecurringIncome: %v", err)
	}

	amount := core.Money{Cents: 512000}
	income, err := gen.GenerateIncome(ctx, "u1", ri.ID, amount, date(2026, time.March, 20))
	if err != nil {
		t.Fatalf("GenerateIncome: %v", err)
	}

	if !income.Date.SameDay(date(2026, time.March, 5)) {
		t.Errorf("Date = %v, want 2026-03-05", income.Date)
	}
	if !income.Recurring || income.RecurringDay != 5 {
		t.Errorf("provenance = (%v, %d), want (true, 5)", income.Recurring, income.RecurringDay)
	}

	updated, err := ledger.GetRecurringIncome(ctx, "u1", ri.ID)
	if err != nil {
		t.Fatalf("GetRecurringIncome: %v", err)
	}
	if updated.ExpectedAmount != amount {
		t.Errorf("ExpectedAmount = %v, want %v", updated.ExpectedAmount, amount)
	}
	if !updated.LastGeneratedDate.SameDay(date(2026, time.March, 20)) {
		t.Errorf("LastGeneratedDate = %v, want target date", updated.LastGeneratedDate)
	}
}

func TestLedger_MarkExpensePaid(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	ctx := context.Background()

	e, err := ledger.CreateExpense(ctx, "u1", core.Expense{
		Description: "Internet",
		Amount:      core.Money{Cents: 9990},
		DueDate:     date(2026, time.March, 10),
		Category:    "Casa",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	paid, err := ledger.MarkExpensePaid(ctx, "u1", e.ID, date(2026, time.March, 8))
	if err != nil {
		t.Fatalf("MarkExpensePaid: %v", err)
	}
	if !paid.Paid {
		t.Error("expected expense to be paid")
	}
	if !paid.PaymentDate.SameDay(date(2026, time.March, 8)) {
		t.Errorf("PaymentDate = %v, want 2026-03-08", paid.PaymentDate)
	}
}

func TestLedger_EmptyUserIsNoop(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)
	ctx := context.Background()

	e, err := ledger.CreateExpense(ctx, "", core.Expense{
		Description: "x",
		Amount:      core.Money{Cents: 100},
		DueDate:     date(2026, time.March, 10),
		Category:    "y",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if e.ID != "" {
		t.Error("expected empty user create to be dropped")
	}

	list, err := ledger.ListExpenses(ctx, "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListExpenses = %d records, want 0", len(list))
	}
}

func TestLedger_CreateExpenseRejectsInvalid(t *testing.T) {
	ledger := NewLedger(memory.New(), nil)

	_, err := ledger.CreateExpense(context.Background(), "u1", core.Expense{
		Description: "",
		Amount:      core.Money{Cents: 100},
		DueDate:     date(2026, time.March, 10),
		Category:    "y",
	})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("CreateExpense = %v, want ErrEmptyDescription", err)
	}
}

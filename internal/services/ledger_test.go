package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/store"
	"contas/internal/store/memory"
)

func TestLedger_UpdateExpenseKeepsStoreOnInvalidPatch(t *testing.T) {
	st := memory.New()
	ledger := NewLedger(st, nil)
	ctx := context.Background()

	e, err := ledger.CreateExpense(ctx, "u1", core.Expense{
		Description: "Internet",
		Amount:      core.Money{Cents: 9990},
		DueDate:     date(2026, time.August, 10),
		Paid:        true,
		PaymentDate: date(2026, time.August, 9),
		Category:    "Casa",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// Flipping paid off while the payment date stays set breaks the
	// "payment date iff paid" rule; the stored row must not change.
	unpaid := false
	_, err = ledger.UpdateExpense(ctx, "u1", e.ID, store.ExpensePatch{Paid: &unpaid})
	if !errors.Is(err, core.ErrPaymentDateSet) {
		t.Fatalf("UpdateExpense = %v, want ErrPaymentDateSet", err)
	}

	stored, err := st.GetExpense(ctx, "u1", e.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if !stored.Paid {
		t.Error("stored expense flipped to unpaid after rejected patch")
	}
	if !stored.PaymentDate.SameDay(date(2026, time.August, 9)) {
		t.Errorf("stored PaymentDate = %v, want untouched 2026-08-09", stored.PaymentDate)
	}

	// Clearing the payment date in the same patch is the legitimate way to
	// unmark, and goes through.
	cleared := core.Date{}
	updated, err := ledger.UpdateExpense(ctx, "u1", e.ID, store.ExpensePatch{
		Paid:        &unpaid,
		PaymentDate: &cleared,
	})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if updated.Paid || !updated.PaymentDate.IsEmpty() {
		t.Errorf("after unmark: paid=%v paymentDate=%v, want unpaid and empty", updated.Paid, updated.PaymentDate)
	}
}

func TestLedger_UpdateTemplateKeepsStoreOnInvertedBounds(t *testing.T) {
	st := memory.New()
	ledger := NewLedger(st, nil)
	ctx := context.Background()

	tpl, err := ledger.CreateTemplate(ctx, "u1", core.RecurringTemplate{
		Description:    "Academia",
		Category:       "Saúde",
		ExpectedAmount: core.Money{Cents: 12000},
		ClosingDay:     1,
		DueDay:         10,
		StartDate:      date(2026, time.January, 1),
		EndDate:        date(2026, time.December, 31),
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	badStart := date(2027, time.June, 1)
	_, err = ledger.UpdateTemplate(ctx, "u1", tpl.ID, store.TemplatePatch{StartDate: &badStart})
	if !errors.Is(err, core.ErrInvalidDateBounds) {
		t.Fatalf("UpdateTemplate = %v, want ErrInvalidDateBounds", err)
	}

	stored, err := st.GetTemplate(ctx, "u1", tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if !stored.StartDate.SameDay(date(2026, time.January, 1)) {
		t.Errorf("stored StartDate = %v, want untouched 2026-01-01", stored.StartDate)
	}
}

func TestLedger_UpdateIncomeKeepsStoreOnInvalidPatch(t *testing.T) {
	st := memory.New()
	ledger := NewLedger(st, nil)
	ctx := context.Background()

	in, err := ledger.CreateIncome(ctx, "u1", core.Income{
		Description: "Salário",
		Amount:      core.Money{Cents: 500000},
		Date:        date(2026, time.August, 5),
	})
	if err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}

	zero := core.Money{}
	_, err = ledger.UpdateIncome(ctx, "u1", in.ID, store.IncomePatch{Amount: &zero})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("UpdateIncome = %v, want ErrInvalidAmount", err)
	}

	stored, err := st.GetIncome(ctx, "u1", in.ID)
	if err != nil {
		t.Fatalf("GetIncome: %v", err)
	}
	if stored.Amount.Cents != 500000 {
		t.Errorf("stored Amount = %d cents, want untouched 500000", stored.Amount.Cents)
	}
}

func TestLedger_UpdateRecurringIncomeKeepsStoreOnInvalidDay(t *testing.T) {
	st := memory.New()
	ledger := NewLedger(st, nil)
	ctx := context.Background()

	ri, err := ledger.CreateRecurringIncome(ctx, "u1", core.RecurringIncome{
		Description:    "Salário",
		ExpectedAmount: core.Money{Cents: 500000},
		Day:            5,
	})
	if err != nil {
		t.Fatalf("CreateRecurringIncome: %v", err)
	}

	badDay := 32
	_, err = ledger.UpdateRecurringIncome(ctx, "u1", ri.ID, store.RecurringIncomePatch{Day: &badDay})
	if !errors.Is(err, core.ErrInvalidDay) {
		t.Fatalf("UpdateRecurringIncome = %v, want ErrInvalidDay", err)
	}

	stored, err := st.GetRecurringIncome(ctx, "u1", ri.ID)
	if err != nil {
		t.Fatalf("GetRecurringIncome: %v", err)
	}
	if stored.Day != 5 {
		t.Errorf("stored Day = %d, want untouched 5", stored.Day)
	}
}

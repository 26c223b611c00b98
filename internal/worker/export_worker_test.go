package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/store/memory"
)

type fakeAppender struct {
	rows []string
	fail bool
}

func (a *fakeAppender) AppendExpense(_ context.Context, userID string, e core.Expense) (string, error) {
	if a.fail {
		return "", errors.New("sheet unavailable")
	}
	a.rows = append(a.rows, userID+":"+e.ID)
	return "Despesas!A2:G2", nil
}

func newExpense(t *testing.T, s *memory.Store, userID, desc string) core.Expense {
	t.Helper()
	e, err := s.CreateExpense(context.Background(), userID, core.Expense{
		Description: desc,
		Amount:      core.Money{Cents: 10000},
		DueDate:     core.Date{Time: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)},
		Category:    "Casa",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	return e
}

func TestExportWorker_HandleExportMessage(t *testing.T) {
	s := memory.New()
	appender := &fakeAppender{}
	w := NewExportWorker(s, s, appender, 10)
	ctx := context.Background()

	e := newExpense(t, s, "u1", "Luz")

	err := w.HandleExportMessage(ctx, &amqp.ExpenseExportMessage{UserID: "u1", ExpenseID: e.ID})
	if err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	if len(appender.rows) != 1 || appender.rows[0] != "u1:"+e.ID {
		t.Errorf("rows = %v, want one row for the expense", appender.rows)
	}

	pending, err := s.ListUnexportedExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexportedExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty after export", pending)
	}
}

func TestExportWorker_HandleExportMessageMissingExpense(t *testing.T) {
	s := memory.New()
	w := NewExportWorker(s, s, &fakeAppender{}, 10)

	// Deleted before delivery is not an error; the message must not requeue.
	err := w.HandleExportMessage(context.Background(), &amqp.ExpenseExportMessage{UserID: "u1", ExpenseID: "gone"})
	if err != nil {
		t.Errorf("HandleExportMessage = %v, want nil for missing expense", err)
	}
}

func TestExportWorker_ProcessPendingExpenses(t *testing.T) {
	s := memory.New()
	appender := &fakeAppender{}
	w := NewExportWorker(s, s, appender, 10)
	ctx := context.Background()

	newExpense(t, s, "u1", "Luz")
	newExpense(t, s, "u1", "Água")

	if err := w.ProcessPendingExpenses(ctx); err != nil {
		t.Fatalf("ProcessPendingExpenses: %v", err)
	}

	if len(appender.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(appender.rows))
	}

	pending, _ := s.ListUnexportedExpenses(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty", pending)
	}
}

func TestExportWorker_AppendFailureMarksError(t *testing.T) {
	s := memory.New()
	appender := &fakeAppender{fail: true}
	w := NewExportWorker(s, s, appender, 10)
	ctx := context.Background()

	e := newExpense(t, s, "u1", "Luz")

	err := w.HandleExportMessage(ctx, &amqp.ExpenseExportMessage{UserID: "u1", ExpenseID: e.ID})
	if err == nil {
		t.Fatal("expected append failure to surface")
	}

	// Marked as error, so the catch-up sweep does not retry it forever.
	pending, _ := s.ListUnexportedExpenses(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending = %v, want empty after error mark", pending)
	}
}

func TestExportWorker_StartupCheck(t *testing.T) {
	s := memory.New()
	appender := &fakeAppender{}
	w := NewExportWorker(s, s, appender, 2)
	ctx := context.Background()

	for _, desc := range []string{"a", "b", "c"} {
		newExpense(t, s, "u1", desc)
	}

	// Startup uses a larger batch than the steady-state sweep.
	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if len(appender.rows) != 3 {
		t.Errorf("rows = %d, want 3", len(appender.rows))
	}
}

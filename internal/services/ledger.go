// Package services orchestrates the record store, the message queue and the
// derived-view computations on top of them.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/core"
	"contas/internal/store"
)

// ExportPublisher publishes export requests for newly created expenses.
type ExportPublisher interface {
	PublishExpenseExport(ctx context.Context, userID, expenseID string) error
}

// Ledger orchestrates record operations for one deployment. Writes go to the
// store first; queue publishing is best effort and never fails the request.
//
// An empty user id behaves like an account with no records: reads come back
// empty and writes are silently dropped.
type Ledger struct {
	store     store.RecordStore
	publisher ExportPublisher
}

func NewLedger(st store.RecordStore, publisher ExportPublisher) *Ledger {
	return &Ledger{
		store:     st,
		publisher: publisher,
	}
}

// --- Expenses ---

func (l *Ledger) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, nil
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := l.store.CreateExpense(ctx, userID, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	l.publishExport(ctx, userID, created.ID)

	return created, nil
}

func (l *Ledger) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, store.ErrNotFound
	}
	return l.store.GetExpense(ctx, userID, id)
}

func (l *Ledger) UpdateExpense(ctx context.Context, userID, id string, p store.ExpensePatch) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, nil
	}

	// Validate the merged result before touching the store so an invalid
	// patch never persists.
	current, err := l.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := p.Apply(current).Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := l.store.UpdateExpense(ctx, userID, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

// MarkExpensePaid flips an expense to paid, stamping the payment date. A zero
// date means paid today.
func (l *Ledger) MarkExpensePaid(ctx context.Context, userID, id string, paymentDate core.Date) (core.Expense, error) {
	if userID == "" {
		return core.Expense{}, nil
	}
	if paymentDate.IsEmpty() {
		paymentDate = core.Date{Time: time.Now().UTC()}
	}

	paid := true
	updated, err := l.UpdateExpense(ctx, userID, id, store.ExpensePatch{
		Paid:        &paid,
		PaymentDate: &paymentDate,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("mark expense paid: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as paid",
		"user_id", userID,
		"expense_id", id,
		"payment_date", paymentDate.Format("2006-01-02"))

	return updated, nil
}

func (l *Ledger) DeleteExpense(ctx context.Context, userID, id string) error {
	if userID == "" {
		return nil
	}
	return l.store.DeleteExpense(ctx, userID, id)
}

func (l *Ledger) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	if userID == "" {
		return nil, nil
	}
	return l.store.ListExpenses(ctx, userID)
}

// --- Recurring templates ---

func (l *Ledger) CreateTemplate(ctx context.Context, userID string, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if userID == "" {
		return core.RecurringTemplate{}, nil
	}
	if err := t.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	return l.store.CreateTemplate(ctx, userID, t)
}

func (l *Ledger) GetTemplate(ctx context.Context, userID, id string) (core.RecurringTemplate, error) {
	if userID == "" {
		return core.RecurringTemplate{}, store.ErrNotFound
	}
	return l.store.GetTemplate(ctx, userID, id)
}

func (l *Ledger) UpdateTemplate(ctx context.Context, userID, id string, p store.TemplatePatch) (core.RecurringTemplate, error) {
	if userID == "" {
		return core.RecurringTemplate{}, nil
	}

	current, err := l.store.GetTemplate(ctx, userID, id)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("update template: %w", err)
	}
	if err := p.Apply(current).Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}

	updated, err := l.store.UpdateTemplate(ctx, userID, id, p)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("update template: %w", err)
	}
	return updated, nil
}

func (l *Ledger) DeleteTemplate(ctx context.Context, userID, id string) error {
	if userID == "" {
		return nil
	}
	return l.store.DeleteTemplate(ctx, userID, id)
}

func (l *Ledger) ListTemplates(ctx context.Context, userID string) ([]core.RecurringTemplate, error) {
	if userID == "" {
		return nil, nil
	}
	return l.store.ListTemplates(ctx, userID)
}

// --- Incomes ---

func (l *Ledger) CreateIncome(ctx context.Context, userID string, in core.Income) (core.Income, error) {
	if userID == "" {
		return core.Income{}, nil
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	return l.store.CreateIncome(ctx, userID, in)
}

func (l *Ledger) UpdateIncome(ctx context.Context, userID, id string, p store.IncomePatch) (core.Income, error) {
	if userID == "" {
		return core.Income{}, nil
	}

	current, err := l.store.GetIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	if err := p.Apply(current).Validate(); err != nil {
		return core.Income{}, err
	}

	updated, err := l.store.UpdateIncome(ctx, userID, id, p)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	return updated, nil
}

func (l *Ledger) DeleteIncome(ctx context.Context, userID, id string) error {
	if userID == "" {
		return nil
	}
	return l.store.DeleteIncome(ctx, userID, id)
}

func (l *Ledger) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	if userID == "" {
		return nil, nil
	}
	return l.store.ListIncomes(ctx, userID)
}

// --- Recurring incomes ---

func (l *Ledger) CreateRecurringIncome(ctx context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error) {
	if userID == "" {
		return core.RecurringIncome{}, nil
	}
	if err := ri.Validate(); err != nil {
		return core.RecurringIncome{}, err
	}
	return l.store.CreateRecurringIncome(ctx, userID, ri)
}

func (l *Ledger) GetRecurringIncome(ctx context.Context, userID, id string) (core.RecurringIncome, error) {
	if userID == "" {
		return core.RecurringIncome{}, store.ErrNotFound
	}
	return l.store.GetRecurringIncome(ctx, userID, id)
}

func (l *Ledger) UpdateRecurringIncome(ctx context.Context, userID, id string, p store.RecurringIncomePatch) (core.RecurringIncome, error) {
	if userID == "" {
		return core.RecurringIncome{}, nil
	}

	current, err := l.store.GetRecurringIncome(ctx, userID, id)
	if err != nil {
		return core.RecurringIncome{}, fmt.Errorf("update recurring income: %w", err)
	}
	if err := p.Apply(current).Validate(); err != nil {
		return core.RecurringIncome{}, err
	}

	updated, err := l.store.UpdateRecurringIncome(ctx, userID, id, p)
	if err != nil {
		return core.RecurringIncome{}, fmt.Errorf("update recurring income: %w", err)
	}
	return updated, nil
}

func (l *Ledger) DeleteRecurringIncome(ctx context.Context, userID, id string) error {
	if userID == "" {
		return nil
	}
	return l.store.DeleteRecurringIncome(ctx, userID, id)
}

func (l *Ledger) ListRecurringIncomes(ctx context.Context, userID string) ([]core.RecurringIncome, error) {
	if userID == "" {
		return nil, nil
	}
	return l.store.ListRecurringIncomes(ctx, userID)
}

// --- Snapshot ---

// LoadSnapshot fetches all four collections for the user. Dashboard and
// reminder computations work off this.
func (l *Ledger) LoadSnapshot(ctx context.Context, userID string) (store.Snapshot, error) {
	if userID == "" {
		return store.Snapshot{}, nil
	}

	expenses, err := l.store.ListExpenses(ctx, userID)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("list expenses: %w", err)
	}
	templates, err := l.store.ListTemplates(ctx, userID)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("list templates: %w", err)
	}
	incomes, err := l.store.ListIncomes(ctx, userID)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("list incomes: %w", err)
	}
	recurringIncomes, err := l.store.ListRecurringIncomes(ctx, userID)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("list recurring incomes: %w", err)
	}

	return store.Snapshot{
		Expenses:         expenses,
		Templates:        templates,
		Incomes:          incomes,
		RecurringIncomes: recurringIncomes,
	}, nil
}

// Users lists every account with at least one record.
func (l *Ledger) Users(ctx context.Context) ([]string, error) {
	return l.store.ListUsers(ctx)
}

func (l *Ledger) publishExport(ctx context.Context, userID, expenseID string) {
	if l.publisher == nil {
		slog.WarnContext(ctx, "Export publisher not available, skipping export message")
		return
	}

	// Don't fail the request; the export worker catches up from the store.
	if err := l.publisher.PublishExpenseExport(ctx, userID, expenseID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"user_id", userID,
			"expense_id", expenseID,
			"error", err)
	}
}

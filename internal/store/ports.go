// Package store defines the ports of the per-user record store and the
// patch types used for partial updates.
//
// Optional-field semantics are explicit: in a patch a nil pointer means
// "leave unchanged" and a zero core.Date means "clear to absent". The
// backends translate "absent" to their native representation (NULL in
// SQLite) in exactly one place, instead of scattering sentinel handling
// per call site.
package store

import (
	"context"
	"errors"

	"contas/internal/core"
)

var (
	// ErrNotFound reports an operation against a record id that does not
	// exist (or belongs to another user). Surfaced explicitly instead of
	// silently no-opping.
	ErrNotFound = errors.New("record not found")
)

// Snapshot is the full in-memory materialization of one user's collections.
// All derived views (summaries, classification, alerts) are computed from it.
type Snapshot struct {
	Expenses         []core.Expense
	Templates        []core.RecurringTemplate
	Incomes          []core.Income
	RecurringIncomes []core.RecurringIncome
}

// ExpensePatch carries a partial expense update.
type ExpensePatch struct {
	Description          *string
	Amount               *core.Money
	DueDate              *core.Date
	Paid                 *bool
	PaymentDate          *core.Date
	Category             *string
	NotificationInterval *int
}

// Apply merges the patch into a record and returns the result. Callers
// validate the merged record before asking a backend to persist the patch,
// so the merge semantics live in exactly one place.
func (p ExpensePatch) Apply(e core.Expense) core.Expense {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.DueDate != nil {
		e.DueDate = *p.DueDate
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.PaymentDate != nil {
		e.PaymentDate = *p.PaymentDate
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.NotificationInterval != nil {
		e.NotificationInterval = *p.NotificationInterval
	}
	return e
}

// TemplatePatch carries a partial recurring-template update.
type TemplatePatch struct {
	Description          *string
	Category             *string
	ExpectedAmount       *core.Money
	ClosingDay           *int
	DueDay               *int
	NotificationInterval *int
	StartDate            *core.Date
	EndDate              *core.Date
	LastGeneratedDate    *core.Date
}

// Apply merges the patch into a template and returns the result.
func (p TemplatePatch) Apply(t core.RecurringTemplate) core.RecurringTemplate {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ExpectedAmount != nil {
		t.ExpectedAmount = *p.ExpectedAmount
	}
	if p.ClosingDay != nil {
		t.ClosingDay = *p.ClosingDay
	}
	if p.DueDay != nil {
		t.DueDay = *p.DueDay
	}
	if p.NotificationInterval != nil {
		t.NotificationInterval = *p.NotificationInterval
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.LastGeneratedDate != nil {
		t.LastGeneratedDate = *p.LastGeneratedDate
	}
	return t
}

// IncomePatch carries a partial income update.
type IncomePatch struct {
	Description  *string
	Amount       *core.Money
	Date         *core.Date
	Category     *string
	Recurring    *bool
	RecurringDay *int
}

// Apply merges the patch into an income and returns the result.
func (p IncomePatch) Apply(in core.Income) core.Income {
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Recurring != nil {
		in.Recurring = *p.Recurring
	}
	if p.RecurringDay != nil {
		in.RecurringDay = *p.RecurringDay
	}
	return in
}

// RecurringIncomePatch carries a partial recurring-income update.
type RecurringIncomePatch struct {
	Description       *string
	ExpectedAmount    *core.Money
	Day               *int
	LastGeneratedDate *core.Date
}

// Apply merges the patch into a recurring income and returns the result.
func (p RecurringIncomePatch) Apply(ri core.RecurringIncome) core.RecurringIncome {
	if p.Description != nil {
		ri.Description = *p.Description
	}
	if p.ExpectedAmount != nil {
		ri.ExpectedAmount = *p.ExpectedAmount
	}
	if p.Day != nil {
		ri.Day = *p.Day
	}
	if p.LastGeneratedDate != nil {
		ri.LastGeneratedDate = *p.LastGeneratedDate
	}
	return ri
}

type (
	ExpenseStore interface {
		CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		UpdateExpense(ctx context.Context, userID, id string, p ExpensePatch) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID, id string) error
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	}

	TemplateStore interface {
		CreateTemplate(ctx context.Context, userID string, t core.RecurringTemplate) (core.RecurringTemplate, error)
		GetTemplate(ctx context.Context, userID, id string) (core.RecurringTemplate, error)
		UpdateTemplate(ctx context.Context, userID, id string, p TemplatePatch) (core.RecurringTemplate, error)
		DeleteTemplate(ctx context.Context, userID, id string) error
		ListTemplates(ctx context.Context, userID string) ([]core.RecurringTemplate, error)
	}

	IncomeStore interface {
		CreateIncome(ctx context.Context, userID string, in core.Income) (core.Income, error)
		GetIncome(ctx context.Context, userID, id string) (core.Income, error)
		UpdateIncome(ctx context.Context, userID, id string, p IncomePatch) (core.Income, error)
		DeleteIncome(ctx context.Context, userID, id string) error
		ListIncomes(ctx context.Context, userID string) ([]core.Income, error)
	}

	RecurringIncomeStore interface {
		CreateRecurringIncome(ctx context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error)
		GetRecurringIncome(ctx context.Context, userID, id string) (core.RecurringIncome, error)
		UpdateRecurringIncome(ctx context.Context, userID, id string, p RecurringIncomePatch) (core.RecurringIncome, error)
		DeleteRecurringIncome(ctx context.Context, userID, id string) error
		ListRecurringIncomes(ctx context.Context, userID string) ([]core.RecurringIncome, error)
	}

	// RecordStore is the full per-user keyed document store.
	RecordStore interface {
		ExpenseStore
		TemplateStore
		IncomeStore
		RecurringIncomeStore

		// ListUsers returns every user id with at least one record, for
		// workers that scan all accounts.
		ListUsers(ctx context.Context) ([]string, error)
	}
)

// ExportCandidate identifies an expense awaiting mirroring to the export
// spreadsheet.
type ExportCandidate struct {
	UserID string
	ID     string
}

// ExportQueue tracks which expenses still need mirroring. Implemented by the
// SQLite backend; the export worker uses it as a catch-up path when queue
// messages are lost.
type ExportQueue interface {
	ListUnexportedExpenses(ctx context.Context, limit int) ([]ExportCandidate, error)
	MarkExpenseExported(ctx context.Context, userID, id string) error
	MarkExpenseExportError(ctx context.Context, userID, id string) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/core"
	"contas/internal/store"
)

// ErrTemplateNotFound reports a generation request against a template id
// that does not exist for the user.
var ErrTemplateNotFound = errors.New("recurring template not found")

// Generator turns recurring templates into concrete monthly records.
type Generator struct {
	ledger *Ledger
}

func NewGenerator(ledger *Ledger) *Generator {
	return &Generator{ledger: ledger}
}

// GenerateExpense creates this month's instance for a template. The due date
// is the target date with its day replaced by the template's due day,
// clamped to the month's last day. The new expense starts unpaid and keeps a
// back-reference to its template.
//
// After the instance exists the template records the confirmed amount as its
// new expectation and the target date as its last generation. The two writes
// are sequential; if the second fails the instance stays and the template
// lags one generation behind, which the next run corrects.
func (g *Generator) GenerateExpense(ctx context.Context, userID, templateID string, amount core.Money, targetDate core.Date) (core.Expense, error) {
	tpl, err := g.ledger.GetTemplate(ctx, userID, templateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Expense{}, ErrTemplateNotFound
		}
		return core.Expense{}, fmt.Errorf("load template: %w", err)
	}

	dueDate := core.ClampDay(targetDate, tpl.DueDay)

	expense, err := g.ledger.CreateExpense(ctx, userID, core.Expense{
		Description:          tpl.Description,
		Amount:               amount,
		DueDate:              dueDate,
		Paid:                 false,
		Category:             tpl.Category,
		RecurringTemplateID:  tpl.ID,
		NotificationInterval: tpl.NotificationInterval,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create generated expense: %w", err)
	}

	if _, err := g.ledger.UpdateTemplate(ctx, userID, templateID, store.TemplatePatch{
		ExpectedAmount:    &amount,
		LastGeneratedDate: &targetDate,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to update template after generation",
			"user_id", userID,
			"template_id", templateID,
			"expense_id", expense.ID,
			"error", err)
		return expense, fmt.Errorf("update template after generation: %w", err)
	}

	slog.InfoContext(ctx, "Generated expense from template",
		"user_id", userID,
		"template_id", templateID,
		"expense_id", expense.ID,
		"due_date", dueDate.Format("2006-01-02"))

	return expense, nil
}

// GenerateIncome creates a concrete income from a recurring income, dated to
// the recurring day within the target month.
func (g *Generator) GenerateIncome(ctx context.Context, userID, recurringIncomeID string, amount core.Money, targetDate core.Date) (core.Income, error) {
	ri, err := g.ledger.GetRecurringIncome(ctx, userID, recurringIncomeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Income{}, ErrTemplateNotFound
		}
		return core.Income{}, fmt.Errorf("load recurring income: %w", err)
	}

	date := core.ClampDay(targetDate, ri.Day)

	income, err := g.ledger.CreateIncome(ctx, userID, core.Income{
		Description:  ri.Description,
		Amount:       amount,
		Date:         date,
		Recurring:    true,
		RecurringDay: ri.Day,
	})
	if err != nil {
		return core.Income{}, fmt.Errorf("create generated income: %w", err)
	}

	if _, err := g.ledger.UpdateRecurringIncome(ctx, userID, recurringIncomeID, store.RecurringIncomePatch{
		ExpectedAmount:    &amount,
		LastGeneratedDate: &targetDate,
	}); err != nil {
		slog.ErrorContext(ctx, "Failed to update recurring income after generation",
			"user_id", userID,
			"recurring_income_id", recurringIncomeID,
			"income_id", income.ID,
			"error", err)
		return income, fmt.Errorf("update recurring income after generation: %w", err)
	}

	slog.InfoContext(ctx, "Generated income from recurring income",
		"user_id", userID,
		"recurring_income_id", recurringIncomeID,
		"income_id", income.ID,
		"date", date.Format("2006-01-02"))

	return income, nil
}

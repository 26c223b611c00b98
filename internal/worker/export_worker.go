// Package worker contains the export worker that mirrors expenses to the
// configured spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/store"
)

// ExpenseAppender writes one expense row to the export destination.
type ExpenseAppender interface {
	AppendExpense(ctx context.Context, userID string, e core.Expense) (string, error)
}

// ExportWorker mirrors expenses to the spreadsheet. Queue messages drive the
// normal path; a periodic catch-up sweep over the export queue in the store
// recovers anything a lost message left behind.
type ExportWorker struct {
	records   store.RecordStore
	queue     store.ExportQueue
	appender  ExpenseAppender
	batchSize int
}

func NewExportWorker(records store.RecordStore, queue store.ExportQueue, appender ExpenseAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		records:   records,
		queue:     queue,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export request from the queue
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExpenseExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"user_id", msg.UserID,
		"expense_id", msg.ExpenseID)

	expense, err := w.records.GetExpense(ctx, msg.UserID, msg.ExpenseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted before the message arrived; nothing to mirror.
			slog.WarnContext(ctx, "Expense gone before export, skipping",
				"user_id", msg.UserID,
				"expense_id", msg.ExpenseID)
			return nil
		}
		return fmt.Errorf("get expense: %w", err)
	}

	return w.export(ctx, msg.UserID, expense)
}

// ProcessPendingExpenses exports expenses whose queue message was lost.
func (w *ExportWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.queue.ListUnexportedExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported expenses: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, candidate := range pending {
		expense, err := w.records.GetExpense(ctx, candidate.UserID, candidate.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get pending expense",
				"user_id", candidate.UserID,
				"expense_id", candidate.ID,
				"error", err)
			if markErr := w.queue.MarkExpenseExportError(ctx, candidate.UserID, candidate.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error",
					"expense_id", candidate.ID, "error", markErr)
			}
			continue
		}

		if err := w.export(ctx, candidate.UserID, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"user_id", candidate.UserID,
				"expense_id", candidate.ID,
				"error", err)
			continue
		}
	}

	return nil
}

// StartupCheck sweeps a larger batch once at worker start to recover from
// downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.queue.ListUnexportedExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unexported expenses for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, candidate := range pending {
		expense, err := w.records.GetExpense(ctx, candidate.UserID, candidate.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense for startup export",
				"user_id", candidate.UserID,
				"expense_id", candidate.ID,
				"error", err)
			if markErr := w.queue.MarkExpenseExportError(ctx, candidate.UserID, candidate.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error",
					"expense_id", candidate.ID, "error", markErr)
			}
			errorCount++
			continue
		}

		if err := w.export(ctx, candidate.UserID, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"user_id", candidate.UserID,
				"expense_id", candidate.ID,
				"error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) export(ctx context.Context, userID string, expense core.Expense) error {
	ref, err := w.appender.AppendExpense(ctx, userID, expense)
	if err != nil {
		if markErr := w.queue.MarkExpenseExportError(ctx, userID, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"expense_id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.queue.MarkExpenseExported(ctx, userID, expense.ID); err != nil {
		// The row landed; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"expense_id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"user_id", userID,
		"expense_id", expense.ID,
		"sheets_ref", ref,
		"description", expense.Description,
		"amount_cents", expense.Amount.Cents)

	return nil
}

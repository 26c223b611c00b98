package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
)

// ReminderPublisher delivers reminder notifications downstream.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// Closing-day reminders repeat hourly while the condition holds.
const closingReminderInterval = time.Hour

// ReminderScanner walks every account and publishes two kinds of reminder:
// unpaid expenses due today or overdue, and templates whose statement closes
// today without a generated instance yet.
//
// Re-notification throttling is in-memory per process. A restart repeats at
// most one notification per record, which is acceptable.
type ReminderScanner struct {
	ledger    *Ledger
	publisher ReminderPublisher

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewReminderScanner(ledger *Ledger, publisher ReminderPublisher) *ReminderScanner {
	return &ReminderScanner{
		ledger:    ledger,
		publisher: publisher,
		lastSent:  make(map[string]time.Time),
	}
}

// ScanAll runs one reminder pass over every account and returns the number
// of reminders published.
func (s *ReminderScanner) ScanAll(ctx context.Context, now time.Time) (int, error) {
	users, err := s.ledger.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, userID := range users {
		n, err := s.ScanUser(ctx, userID, now)
		if err != nil {
			slog.ErrorContext(ctx, "Reminder scan failed for user",
				"user_id", userID,
				"error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// ScanUser runs one reminder pass for a single account.
func (s *ReminderScanner) ScanUser(ctx context.Context, userID string, now time.Time) (int, error) {
	snapshot, err := s.ledger.LoadSnapshot(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	sent := 0
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())

	for _, e := range snapshot.Expenses {
		if e.Paid {
			continue
		}
		if e.DueDate.After(endOfToday) {
			continue
		}

		interval := time.Duration(e.NotificationInterval) * time.Minute
		if !s.due("expense:"+userID+":"+e.ID, now, interval) {
			continue
		}

		msg := &amqp.ReminderMessage{
			Kind:        amqp.ReminderKindDueExpense,
			UserID:      userID,
			RecordID:    e.ID,
			Description: e.Description,
			AmountCents: e.Amount.Cents,
			DueDate:     e.DueDate.Time,
			Timestamp:   now,
		}
		if err := s.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish due expense reminder",
				"user_id", userID,
				"expense_id", e.ID,
				"error", err)
			continue
		}
		sent++
	}

	for _, tpl := range snapshot.Templates {
		// Day numbers past the month's end roll into the next month, same
		// normalization the dashboard alert uses.
		closingDate := time.Date(now.Year(), now.Month(), tpl.ClosingDay, 0, 0, 0, 0, now.Location())
		if !sameDay(closingDate, now) {
			continue
		}

		// Matched strictly by due day, not by month: an instance moved to
		// another date does not suppress the closing reminder.
		dueDate := time.Date(now.Year(), now.Month(), tpl.DueDay, 0, 0, 0, 0, now.Location())
		if hasInstanceOnDay(snapshot.Expenses, tpl.ID, dueDate) {
			continue
		}

		if !s.due("closing:"+userID+":"+tpl.ID, now, closingReminderInterval) {
			continue
		}

		msg := &amqp.ReminderMessage{
			Kind:        amqp.ReminderKindClosingDay,
			UserID:      userID,
			RecordID:    tpl.ID,
			Description: tpl.Description,
			AmountCents: tpl.ExpectedAmount.Cents,
			DueDate:     dueDate,
			Timestamp:   now,
		}
		if err := s.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish closing day reminder",
				"user_id", userID,
				"template_id", tpl.ID,
				"error", err)
			continue
		}
		sent++
	}

	return sent, nil
}

// due reports whether the throttle window for a key has elapsed and stamps
// the key when it has.
func (s *ReminderScanner) due(key string, now time.Time, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSent[key]; ok && interval > 0 && now.Sub(last) < interval {
		return false
	}
	s.lastSent[key] = now
	return true
}

func hasInstanceOnDay(expenses []core.Expense, templateID string, day time.Time) bool {
	for _, e := range expenses {
		if e.RecurringTemplateID == templateID && sameDay(e.DueDate.Time, day) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

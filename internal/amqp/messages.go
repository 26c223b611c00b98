package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseExportMessage asks the export worker to mirror one expense to the
// spreadsheet. It carries only the keys; the worker fetches the full record
// so a delayed delivery never exports stale data.
type ExpenseExportMessage struct {
	UserID    string    `json:"user_id"`
	ExpenseID string    `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseExportMessage creates a new export message for an expense
func NewExpenseExportMessage(userID, expenseID string) *ExpenseExportMessage {
	return &ExpenseExportMessage{
		UserID:    userID,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseExportMessageFromJSON creates a message from JSON bytes
func ExpenseExportMessageFromJSON(data []byte) (*ExpenseExportMessage, error) {
	var msg ExpenseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Reminder kinds published by the reminder worker.
const (
	ReminderKindDueExpense = "due_expense"
	ReminderKindClosingDay = "closing_day"
)

// ReminderMessage is a notification produced by the reminder worker for
// downstream delivery channels.
type ReminderMessage struct {
	Kind        string    `json:"kind"`
	UserID      string    `json:"user_id"`
	RecordID    string    `json:"record_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	DueDate     time.Time `json:"due_date"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

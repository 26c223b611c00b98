package amqp

import (
	"testing"
	"time"
)

func TestNewExpenseExportMessage(t *testing.T) {
	msg := NewExpenseExportMessage("alice", "exp-123")

	if msg.UserID != "alice" {
		t.Errorf("UserID = %v, want alice", msg.UserID)
	}
	if msg.ExpenseID != "exp-123" {
		t.Errorf("ExpenseID = %v, want exp-123", msg.ExpenseID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestExpenseExportMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &ExpenseExportMessage{
		UserID:    "alice",
		ExpenseID: "exp-123",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseExportMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseExportMessageFromJSON() error = %v", err)
	}

	if parsed.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsed.UserID, msg.UserID)
	}
	if parsed.ExpenseID != msg.ExpenseID {
		t.Errorf("Parsed ExpenseID = %v, want %v", parsed.ExpenseID, msg.ExpenseID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestReminderMessage_JSON(t *testing.T) {
	msg := &ReminderMessage{
		Kind:        ReminderKindDueExpense,
		UserID:      "alice",
		RecordID:    "exp-123",
		Description: "Aluguel",
		AmountCents: 120000,
		DueDate:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Timestamp:   time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReminderMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReminderMessageFromJSON() error = %v", err)
	}

	if parsed.Kind != ReminderKindDueExpense {
		t.Errorf("Parsed Kind = %v, want %v", parsed.Kind, ReminderKindDueExpense)
	}
	if parsed.Description != "Aluguel" {
		t.Errorf("Parsed Description = %v, want Aluguel", parsed.Description)
	}
	if parsed.AmountCents != 120000 {
		t.Errorf("Parsed AmountCents = %v, want 120000", parsed.AmountCents)
	}
}

func TestExpenseExportMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"user_id": 42}`)

	_, err := ExpenseExportMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ExpenseExportMessageFromJSON() should fail with invalid JSON")
	}
}

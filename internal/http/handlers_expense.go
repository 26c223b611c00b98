package http

import (
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/store"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	case http.MethodPatch:
		s.handleUpdateExpense(w, r)
	case http.MethodDelete:
		s.handleDeleteExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PATCH, DELETE")
	}
}

func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	if id := r.URL.Query().Get("id"); id != "" {
		expense, err := s.ledger.GetExpense(r.Context(), user, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExpenseJSON(expense))
		return
	}

	expenses, err := s.ledger.ListExpenses(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseListJSON(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := body.Money("amount")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dueDate, err := body.Date("due_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	paymentDate, err := body.Date("payment_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	paid, err := body.Bool("paid")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	interval, err := body.Int("notification_interval")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	expense := core.Expense{
		Description:          body.String("description"),
		Amount:               amount,
		DueDate:              dueDate,
		Paid:                 paid,
		PaymentDate:          paymentDate,
		Category:             body.String("category"),
		NotificationInterval: interval,
	}

	created, err := s.ledger.CreateExpense(r.Context(), user, expense)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusCreated, toExpenseJSON(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.ExpensePatch
	if body.Has("description") {
		v := body.String("description")
		patch.Description = &v
	}
	if body.Has("amount") {
		v, err := body.Money("amount")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.Amount = &v
	}
	if body.Has("due_date") {
		v, err := body.Date("due_date")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.DueDate = &v
	}
	if body.Has("paid") {
		v, err := body.Bool("paid")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.Paid = &v
	}
	if body.Has("payment_date") {
		v, err := body.Date("payment_date")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.PaymentDate = &v
	}
	if body.Has("category") {
		v := body.String("category")
		patch.Category = &v
	}
	if body.Has("notification_interval") {
		v, err := body.Int("notification_interval")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.NotificationInterval = &v
	}

	updated, err := s.ledger.UpdateExpense(r.Context(), user, id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusOK, toExpenseJSON(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), user, id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkExpensePaid settles an expense. An omitted payment_date means
// paid today.
func (s *Server) handleMarkExpensePaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paymentDate, err := body.Date("payment_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	paid, err := s.ledger.MarkExpensePaid(r.Context(), user, id, paymentDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusOK, toExpenseJSON(paid))
}

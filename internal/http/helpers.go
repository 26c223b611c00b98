package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/services"
	"contas/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps known errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDateBounds),
		errors.Is(err, core.ErrPaymentDateMissing),
		errors.Is(err, core.ErrPaymentDateSet):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requireID pulls the ?id= query parameter, writing a 400 when missing.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return "", false
	}
	return id, true
}

// --- Response shapes ---

type dateJSON struct {
	core.Date
}

func (d dateJSON) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

type expenseJSON struct {
	ID                   string   `json:"id"`
	Description          string   `json:"description"`
	AmountCents          int64    `json:"amount_cents"`
	Amount               string   `json:"amount"`
	DueDate              dateJSON `json:"due_date"`
	Paid                 bool     `json:"paid"`
	PaymentDate          dateJSON `json:"payment_date"`
	Category             string   `json:"category"`
	RecurringTemplateID  string   `json:"recurring_template_id,omitempty"`
	NotificationInterval int      `json:"notification_interval"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:                   e.ID,
		Description:          e.Description,
		AmountCents:          e.Amount.Cents,
		Amount:               e.Amount.Format(),
		DueDate:              dateJSON{e.DueDate},
		Paid:                 e.Paid,
		PaymentDate:          dateJSON{e.PaymentDate},
		Category:             e.Category,
		RecurringTemplateID:  e.RecurringTemplateID,
		NotificationInterval: e.NotificationInterval,
	}
}

func toExpenseListJSON(expenses []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

type templateJSON struct {
	ID                   string   `json:"id"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	ExpectedAmountCents  int64    `json:"expected_amount_cents"`
	ExpectedAmount       string   `json:"expected_amount"`
	ClosingDay           int      `json:"closing_day"`
	DueDay               int      `json:"due_day"`
	NotificationInterval int      `json:"notification_interval"`
	StartDate            dateJSON `json:"start_date"`
	EndDate              dateJSON `json:"end_date"`
	LastGeneratedDate    dateJSON `json:"last_generated_date"`
}

func toTemplateJSON(t core.RecurringTemplate) templateJSON {
	return templateJSON{
		ID:                   t.ID,
		Description:          t.Description,
		Category:             t.Category,
		ExpectedAmountCents:  t.ExpectedAmount.Cents,
		ExpectedAmount:       t.ExpectedAmount.Format(),
		ClosingDay:           t.ClosingDay,
		DueDay:               t.DueDay,
		NotificationInterval: t.NotificationInterval,
		StartDate:            dateJSON{t.StartDate},
		EndDate:              dateJSON{t.EndDate},
		LastGeneratedDate:    dateJSON{t.LastGeneratedDate},
	}
}

type incomeJSON struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	AmountCents  int64    `json:"amount_cents"`
	Amount       string   `json:"amount"`
	Date         dateJSON `json:"date"`
	Category     string   `json:"category,omitempty"`
	Recurring    bool     `json:"recurring"`
	RecurringDay int      `json:"recurring_day,omitempty"`
}

func toIncomeJSON(in core.Income) incomeJSON {
	return incomeJSON{
		ID:           in.ID,
		Description:  in.Description,
		AmountCents:  in.Amount.Cents,
		Amount:       in.Amount.Format(),
		Date:         dateJSON{in.Date},
		Category:     in.Category,
		Recurring:    in.Recurring,
		RecurringDay: in.RecurringDay,
	}
}

type recurringIncomeJSON struct {
	ID                  string   `json:"id"`
	Description         string   `json:"description"`
	ExpectedAmountCents int64    `json:"expected_amount_cents"`
	ExpectedAmount      string   `json:"expected_amount"`
	Day                 int      `json:"day"`
	LastGeneratedDate   dateJSON `json:"last_generated_date"`
}

func toRecurringIncomeJSON(ri core.RecurringIncome) recurringIncomeJSON {
	return recurringIncomeJSON{
		ID:                  ri.ID,
		Description:         ri.Description,
		ExpectedAmountCents: ri.ExpectedAmount.Cents,
		ExpectedAmount:      ri.ExpectedAmount.Format(),
		Day:                 ri.Day,
		LastGeneratedDate:   dateJSON{ri.LastGeneratedDate},
	}
}

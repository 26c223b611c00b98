package http

import (
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/store"
)

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListIncomes(w, r)
	case http.MethodPost:
		s.handleCreateIncome(w, r)
	case http.MethodPatch:
		s.handleUpdateIncome(w, r)
	case http.MethodDelete:
		s.handleDeleteIncome(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PATCH, DELETE")
	}
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.ledger.ListIncomes(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List incomes failed", "error", err)
		writeDomainError(w, err)
		return
	}

	out := make([]incomeJSON, 0, len(incomes))
	for _, in := range incomes {
		out = append(out, toIncomeJSON(in))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
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
	date, err := body.Date("date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	recurring, err := body.Bool("recurring")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	recurringDay, err := body.Int("recurring_day")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	income := core.Income{
		Description:  body.String("description"),
		Amount:       amount,
		Date:         date,
		Category:     body.String("category"),
		Recurring:    recurring,
		RecurringDay: recurringDay,
	}

	created, err := s.ledger.CreateIncome(r.Context(), user, income)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusCreated, toIncomeJSON(created))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
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

	var patch store.IncomePatch
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
	if body.Has("date") {
		v, err := body.Date("date")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.Date = &v
	}
	if body.Has("category") {
		v := body.String("category")
		patch.Category = &v
	}
	if body.Has("recurring") {
		v, err := body.Bool("recurring")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.Recurring = &v
	}
	if body.Has("recurring_day") {
		v, err := body.Int("recurring_day")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.RecurringDay = &v
	}

	updated, err := s.ledger.UpdateIncome(r.Context(), user, id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusOK, toIncomeJSON(updated))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteIncome(r.Context(), user, id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecurringIncomes(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	switch r.Method {
	case http.MethodGet:
		if id := r.URL.Query().Get("id"); id != "" {
			ri, err := s.ledger.GetRecurringIncome(r.Context(), user, id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toRecurringIncomeJSON(ri))
			return
		}

		recurringIncomes, err := s.ledger.ListRecurringIncomes(r.Context(), user)
		if err != nil {
			slog.ErrorContext(r.Context(), "List recurring incomes failed", "error", err)
			writeDomainError(w, err)
			return
		}
		out := make([]recurringIncomeJSON, 0, len(recurringIncomes))
		for _, ri := range recurringIncomes {
			out = append(out, toRecurringIncomeJSON(ri))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		body, err := ParseRequestBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		amount, err := body.Money("expected_amount")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		day, err := body.Int("day")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		created, err := s.ledger.CreateRecurringIncome(r.Context(), user, core.RecurringIncome{
			Description:    body.String("description"),
			ExpectedAmount: amount,
			Day:            day,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecurringIncomeJSON(created))

	case http.MethodPatch:
		id, ok := requireID(w, r)
		if !ok {
			return
		}

		body, err := ParseRequestBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var patch store.RecurringIncomePatch
		if body.Has("description") {
			v := body.String("description")
			patch.Description = &v
		}
		if body.Has("expected_amount") {
			v, err := body.Money("expected_amount")
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			patch.ExpectedAmount = &v
		}
		if body.Has("day") {
			v, err := body.Int("day")
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			patch.Day = &v
		}

		updated, err := s.ledger.UpdateRecurringIncome(r.Context(), user, id, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecurringIncomeJSON(updated))

	case http.MethodDelete:
		id, ok := requireID(w, r)
		if !ok {
			return
		}
		if err := s.ledger.DeleteRecurringIncome(r.Context(), user, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, POST, PATCH, DELETE")
	}
}

// handleGenerateIncome confirms one month of a recurring income.
func (s *Server) handleGenerateIncome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	user := userID(r)

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	recurringIncomeID := body.String("recurring_income_id")
	if recurringIncomeID == "" {
		writeError(w, http.StatusBadRequest, "missing recurring_income_id")
		return
	}
	amount, err := body.Money("amount")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	targetDate, err := body.Date("target_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if targetDate.IsEmpty() {
		targetDate = core.Date{Time: s.now()}
	}

	income, err := s.generator.GenerateIncome(r.Context(), user, recurringIncomeID, amount, targetDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusCreated, toIncomeJSON(income))
}

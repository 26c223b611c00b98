// Package memory implements the record store in process memory. It backs
// tests and local development where no SQLite file is wanted.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/store"
)

type account struct {
	expenses         map[string]core.Expense
	templates        map[string]core.RecurringTemplate
	incomes          map[string]core.Income
	recurringIncomes map[string]core.RecurringIncome
	exportState      map[string]string
	created          map[string]time.Time
}

type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

var _ store.RecordStore = (*Store)(nil)
var _ store.ExportQueue = (*Store)(nil)

func New() *Store {
	return &Store{accounts: make(map[string]*account)}
}

// acct returns the user's account, creating it on first write.
func (s *Store) acct(userID string) *account {
	a, ok := s.accounts[userID]
	if !ok {
		a = &account{
			expenses:         make(map[string]core.Expense),
			templates:        make(map[string]core.RecurringTemplate),
			incomes:          make(map[string]core.Income),
			recurringIncomes: make(map[string]core.RecurringIncome),
			exportState:      make(map[string]string),
			created:          make(map[string]time.Time),
		}
		s.accounts[userID] = a
	}
	return a
}

func (s *Store) CreateExpense(_ context.Context, userID string, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = core.Date{Time: now}
	e.UpdatedAt = core.Date{Time: now}

	a := s.acct(userID)
	a.expenses[e.ID] = e
	a.exportState[e.ID] = "pending"
	a.created[e.ID] = now
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	e, ok := a.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, userID, id string, p store.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	e, ok := a.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}

	e = p.Apply(e)
	e.UpdatedAt = core.Date{Time: time.Now().UTC()}

	a.expenses[id] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := a.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(a.expenses, id)
	delete(a.exportState, id)
	delete(a.created, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	out := make([]core.Expense, 0, len(a.expenses))
	for _, e := range a.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateTemplate(_ context.Context, userID string, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = core.Date{Time: now}
	t.UpdatedAt = core.Date{Time: now}

	s.acct(userID).templates[t.ID] = t
	return t, nil
}

func (s *Store) GetTemplate(_ context.Context, userID, id string) (core.RecurringTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.RecurringTemplate{}, store.ErrNotFound
	}
	t, ok := a.templates[id]
	if !ok {
		return core.RecurringTemplate{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTemplate(_ context.Context, userID, id string, p store.TemplatePatch) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.RecurringTemplate{}, store.ErrNotFound
	}
	t, ok := a.templates[id]
	if !ok {
		return core.RecurringTemplate{}, store.ErrNotFound
	}

	t = p.Apply(t)
	t.UpdatedAt = core.Date{Time: time.Now().UTC()}

	a.templates[id] = t
	return t, nil
}

func (s *Store) DeleteTemplate(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := a.templates[id]; !ok {
		return store.ErrNotFound
	}
	delete(a.templates, id)
	return nil
}

func (s *Store) ListTemplates(_ context.Context, userID string) ([]core.RecurringTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	out := make([]core.RecurringTemplate, 0, len(a.templates))
	for _, t := range a.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt.Time) {
			return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateIncome(_ context.Context, userID string, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	in.ID = uuid.NewString()
	in.CreatedAt = core.Date{Time: now}
	in.UpdatedAt = core.Date{Time: now}

	s.acct(userID).incomes[in.ID] = in
	return in, nil
}

func (s *Store) GetIncome(_ context.Context, userID, id string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.Income{}, store.ErrNotFound
	}
	in, ok := a.incomes[id]
	if !ok {
		return core.Income{}, store.ErrNotFound
	}
	return in, nil
}

func (s *Store) UpdateIncome(_ context.Context, userID, id string, p store.IncomePatch) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.Income{}, store.ErrNotFound
	}
	in, ok := a.incomes[id]
	if !ok {
		return core.Income{}, store.ErrNotFound
	}

	in = p.Apply(in)
	in.UpdatedAt = core.Date{Time: time.Now().UTC()}

	a.incomes[id] = in
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := a.incomes[id]; !ok {
		return store.ErrNotFound
	}
	delete(a.incomes, id)
	return nil
}

func (s *Store) ListIncomes(_ context.Context, userID string) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	out := make([]core.Income, 0, len(a.incomes))
	for _, in := range a.incomes {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateRecurringIncome(_ context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	ri.ID = uuid.NewString()
	ri.CreatedAt = core.Date{Time: now}
	ri.UpdatedAt = core.Date{Time: now}

	s.acct(userID).recurringIncomes[ri.ID] = ri
	return ri, nil
}

func (s *Store) GetRecurringIncome(_ context.Context, userID, id string) (core.RecurringIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.RecurringIncome{}, store.ErrNotFound
	}
	ri, ok := a.recurringIncomes[id]
	if !ok {
		return core.RecurringIncome{}, store.ErrNotFound
	}
	return ri, nil
}

func (s *Store) UpdateRecurringIncome(_ context.Context, userID, id string, p store.RecurringIncomePatch) (core.RecurringIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return core.RecurringIncome{}, store.ErrNotFound
	}
	ri, ok := a.recurringIncomes[id]
	if !ok {
		return core.RecurringIncome{}, store.ErrNotFound
	}

	ri = p.Apply(ri)
	ri.UpdatedAt = core.Date{Time: time.Now().UTC()}

	a.recurringIncomes[id] = ri
	return ri, nil
}

func (s *Store) DeleteRecurringIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := a.recurringIncomes[id]; !ok {
		return store.ErrNotFound
	}
	delete(a.recurringIncomes, id)
	return nil
}

func (s *Store) ListRecurringIncomes(_ context.Context, userID string) ([]core.RecurringIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, nil
	}
	out := make([]core.RecurringIncome, 0, len(a.recurringIncomes))
	for _, ri := range a.recurringIncomes {
		out = append(out, ri)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.accounts))
	for id, a := range s.accounts {
		if len(a.expenses) == 0 && len(a.templates) == 0 &&
			len(a.incomes) == 0 && len(a.recurringIncomes) == 0 {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) ListUnexportedExpenses(_ context.Context, limit int) ([]store.ExportCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type pending struct {
		c       store.ExportCandidate
		created time.Time
	}
	var all []pending
	for userID, a := range s.accounts {
		for id, state := range a.exportState {
			if state != "pending" {
				continue
			}
			all = append(all, pending{
				c:       store.ExportCandidate{UserID: userID, ID: id},
				created: a.created[id],
			})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].created.Equal(all[j].created) {
			return all[i].created.Before(all[j].created)
		}
		return all[i].c.ID < all[j].c.ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]store.ExportCandidate, 0, len(all))
	for _, p := range all {
		out = append(out, p.c)
	}
	return out, nil
}

func (s *Store) MarkExpenseExported(_ context.Context, userID, id string) error {
	return s.markExportState(userID, id, "exported")
}

func (s *Store) MarkExpenseExportError(_ context.Context, userID, id string) error {
	return s.markExportState(userID, id, "error")
}

func (s *Store) markExportState(userID, id, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := a.exportState[id]; !ok {
		return store.ErrNotFound
	}
	a.exportState[id] = state
	return nil
}

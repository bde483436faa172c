package http

import (
	"net/http"
	"strings"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Expenses.ListExpenses(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	e, err := s.svc.Expenses.CreateExpense(ctx, profileID(ctx), req.toExpense(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Transaction recorded",
		"expense_id", e.ID, log.FieldAmountCents, e.Amount.Cents, log.FieldOperation, log.OpCreate)
	NewJSONResponse().Created(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.Expenses.UpdateExpense(r.Context(), profileID(r.Context()), req.toExpense(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.DeleteExpense(r.Context(), profileID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

// handleSummary answers ?view=individual|couple&person=person1&month=YYYY-MM.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := parseMonth(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := core.View(strings.TrimSpace(q.Get("view")))
	if view == "" {
		view = core.ViewCouple
	}
	person := core.Person(strings.TrimSpace(q.Get("person")))

	summary, err := s.svc.Expenses.Summary(r.Context(), profileID(r.Context()), view, person, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Expenses.ListCategories(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Expenses.CreateCategory(r.Context(), profileID(r.Context()), req.toCategory(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Created(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Expenses.UpdateCategory(r.Context(), profileID(r.Context()), req.toCategory(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.DeleteCategory(r.Context(), profileID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

package http

import (
	"net/http"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/log"
	"github.com/marcim390/financeapp/internal/services"
)

type paymentResponse struct {
	Expense   core.Expense          `json:"expense"`
	Recurring core.RecurringExpense `json:"recurring"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Recurring.List(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []services.RecurringItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Recurring.Create(r.Context(), profileID(r.Context()), req.toRecurring(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Created(item).Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Recurring.Update(r.Context(), profileID(r.Context()), req.toRecurring(id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), profileID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

func (s *Server) handleRecurringStatus(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.Recurring.Status(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// handleMarkAsPaid records the payment and advances the item one cycle.
func (s *Server) handleMarkAsPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	payment, item, err := s.svc.Recurring.MarkAsPaid(ctx, profileID(ctx), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Recurring item paid",
		log.FieldRecurringID, id, log.FieldAmountCents, payment.Amount.Cents, log.FieldOperation, log.OpPay,
		"next_due_date", item.NextDueDate.String())
	writeJSON(w, http.StatusOK, paymentResponse{Expense: payment, Recurring: item})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req activeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField(req.Active != nil, "active"); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.svc.Recurring.SetActive(r.Context(), profileID(r.Context()), id, *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

package http

import (
	"net/http"

	"github.com/marcim390/financeapp/internal/log"
)

func (s *Server) handleSendInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField(req.Email != "", "email"); err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := s.svc.Invitations.SendInvitation(r.Context(), profileID(r.Context()), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Created(inv).Write(w)
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := s.svc.Invitations.ListInvitations(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

// handleAcceptInvitation only lets the addressed recipient accept.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	if err := s.svc.Invitations.AuthorizeRecipient(ctx, id, profileID(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	couple, err := s.svc.Invitations.AcceptInvitation(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Invitation accepted",
		log.FieldInvitationID, id, log.FieldCoupleID, couple.ID, log.FieldOperation, log.OpAccept)
	writeJSON(w, http.StatusOK, couple)
}

func (s *Server) handleRejectInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	if err := s.svc.Invitations.AuthorizeRecipient(ctx, id, profileID(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Invitations.RejectInvitation(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

func (s *Server) handleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Invitations.CancelInvitation(r.Context(), id, profileID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

func (s *Server) handleGetCouple(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Invitations.CoupleOf(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBreakCouple(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Invitations.BreakCouple(r.Context(), id, profileID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

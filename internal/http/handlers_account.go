package http

import (
	"net/http"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/services"
)

// handleCompleteRegistration activates a placeholder created by an
// invitation. It is the only unauthenticated API route.
func (s *Server) handleCompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField(req.Email != "", "email"); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Accounts.CompleteRegistration(r.Context(), req.Email, req.Password, sanitizeInput(req.FullName))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Accounts.GetProfile(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch services.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.FullName != nil {
		name := sanitizeInput(*patch.FullName)
		patch.FullName = &name
	}
	p, err := s.svc.Accounts.UpdateProfile(r.Context(), profileID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTransactionLimit(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Accounts.CheckTransactionLimit(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Accounts.ListProfiles(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []core.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleAdminSetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Accounts.SetPlan(r.Context(), profileID(r.Context()), id, req.Plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

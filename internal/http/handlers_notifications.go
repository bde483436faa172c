package http

import (
	"net/http"

	"github.com/marcim390/financeapp/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Notifications.Settings(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.NotificationSettings
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Notifications.SaveSettings(r.Context(), profileID(r.Context()), settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleActiveNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notifications.ActiveFor(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleAdminListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notifications.List(r.Context(), profileID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleAdminCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n := core.Notification{
		Title:       sanitizeInput(req.Title),
		Message:     sanitizeInput(req.Message),
		TargetUsers: req.TargetUsers,
	}
	created, err := s.svc.Notifications.Create(r.Context(), profileID(r.Context()), n, req.SendEmail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Created(created).Write(w)
}

func (s *Server) handleAdminToggleNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.svc.Notifications.Toggle(r.Context(), profileID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleAdminDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Notifications.Delete(r.Context(), profileID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

func nonNil(list []core.Notification) []core.Notification {
	if list == nil {
		return []core.Notification{}
	}
	return list
}

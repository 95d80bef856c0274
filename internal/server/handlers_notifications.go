package server

import (
	"net/http"

	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// handleListNotifications lists the caller's notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := s.db.Store().ListNotifications(r.Context(), userID, unreadOnly, int(queryInt(r, "limit")))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, notifications)
}

// handleMarkNotificationRead marks one of the caller's notifications read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := s.db.Store().MarkNotificationRead(r.Context(), id, userID); err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "read"})
}

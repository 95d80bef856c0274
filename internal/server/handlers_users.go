package server

import (
	"encoding/json"
	"net/http"

	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// handleGetMe returns the authenticated account, with the candidate profile
// attached for candidate accounts.
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	store := s.db.Store()
	user, err := store.GetUser(r.Context(), userID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "user not found")
		return
	}

	response := map[string]any{"user": user}
	if user.Role == db.RoleCandidate {
		candidate, err := store.GetCandidateByUserID(r.Context(), userID)
		if err != nil {
			s.handleError(w, err)
			return
		}
		response["candidate"] = candidate
	}
	s.jsonResponse(w, http.StatusOK, response)
}

// handleUpdateProfile merges profile fields into the authenticated account
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var profile map[string]any
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	store := s.db.Store()
	if err := store.UpdateUserProfile(r.Context(), userID, db.JSONMap(profile)); err != nil {
		s.handleError(w, err)
		return
	}

	user, err := store.GetUser(r.Context(), userID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

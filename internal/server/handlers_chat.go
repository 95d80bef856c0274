package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/recruitflow/recruitflow/internal/chat"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// handleListThreads lists the caller's threads with unread counts
func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	threads, err := s.chatService.ListThreads(r.Context(), userID, r.URL.Query().Get("entity_type"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, threads)
}

// handleCreateThread opens a conversation
func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)

	var input chat.CreateThreadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	thread, err := s.chatService.CreateThread(r.Context(), userID, input)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, thread)
}

// handleListMessages returns thread history, marking it read
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	threadID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	messages, err := s.chatService.Messages(r.Context(), userID, threadID,
		int(queryInt(r, "limit")), queryInt(r, "before_id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, messages)
}

// handleSendMessage posts a message over REST; fan-out matches the websocket path
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	threadID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	var input chat.SendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.ThreadID = threadID

	message, err := s.chatService.Send(r.Context(), userID, input)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, message)
}

// handleSearchMessages searches the caller's threads
func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	messages, err := s.chatService.Search(r.Context(), userID,
		r.URL.Query().Get("q"), queryInt(r, "thread_id"), int(queryInt(r, "limit")))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, messages)
}

// handleGetPresence reports presence for a comma-separated user id list
func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	var userIDs []int64
	for _, part := range strings.Split(r.URL.Query().Get("user_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid user_ids")
			return
		}
		userIDs = append(userIDs, id)
	}

	presences, err := s.chatService.PresenceFor(r.Context(), userIDs)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, presences)
}

// handleWebsocket upgrades the connection into the chat fabric
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	chat.HandleSocket(s.hub, s.chatService, userID, w, r)
}

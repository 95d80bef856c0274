package server

import (
	"encoding/json"
	"net/http"

	"github.com/recruitflow/recruitflow/internal/db"
)

// handleApply creates or resumes an application for a requisition
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(r, "job_id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid job id")
		return
	}

	app, err := s.applications.Apply(r.Context(), s.applicationActor(r), jobID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

// handleSaveDraft stores one screen of draft answers
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req struct {
		Screen string         `json:"screen"`
		Data   map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Screen == "" {
		s.errorResponse(w, http.StatusBadRequest, "screen is required")
		return
	}

	app, err := s.applications.SaveDraft(r.Context(), s.applicationActor(r), id, req.Screen, req.Data)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleSubmitDraft advances a draft back to in_progress
func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	app, err := s.applications.SubmitDraft(r.Context(), s.applicationActor(r), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleSubmitAssessment grades the assessment and finalizes scoring
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app, err := s.applications.SubmitAssessment(r.Context(), s.applicationActor(r), id, req.Answers)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

// handleListMyApplications lists the caller's own applications
func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	actor := s.applicationActor(r)
	store := s.db.Store()

	candidate, err := store.GetCandidateByUserID(r.Context(), actor.UserID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if candidate == nil {
		s.jsonResponse(w, http.StatusOK, []db.Application{})
		return
	}

	apps, err := store.ListApplications(r.Context(), db.ApplicationFilters{
		CandidateID: candidate.ID,
		Status:      r.URL.Query().Get("status"),
		Limit:       int(queryInt(r, "limit")),
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

// handleListApplications lists applications for the review pipeline
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.db.Store().ListApplications(r.Context(), db.ApplicationFilters{
		RequisitionID: queryInt(r, "requisition_id"),
		CandidateID:   queryInt(r, "candidate_id"),
		Status:        r.URL.Query().Get("status"),
		Limit:         int(queryInt(r, "limit")),
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

// handleGetApplication retrieves one application with its assessment detail
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	store := s.db.Store()
	app, err := store.GetApplication(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if app == nil {
		s.errorResponse(w, http.StatusNotFound, "application not found")
		return
	}

	assessment, err := store.GetAssessmentResultByApplication(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"application": app,
		"assessment":  assessment,
	})
}

// handleReviewApplication moves an application along the review pipeline
func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app, err := s.applications.Review(r.Context(), s.applicationActor(r), id, req.Target)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// handleScheduleInterview creates an interview slot for a candidate
func (s *Server) handleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID   int64     `json:"candidate_id"`
		ApplicationID *int64    `json:"application_id"`
		ScheduledTime time.Time `json:"scheduled_time"`
		Notes         string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CandidateID == 0 || req.ScheduledTime.IsZero() {
		s.errorResponse(w, http.StatusBadRequest, "candidate_id and scheduled_time are required")
		return
	}

	userID, _ := middleware.GetUserID(r)
	store := s.db.Store()
	id, err := store.CreateInterview(r.Context(), &db.Interview{
		CandidateID:   req.CandidateID,
		ApplicationID: req.ApplicationID,
		ScheduledBy:   userID,
		ScheduledTime: req.ScheduledTime,
		Notes:         req.Notes,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	interview, err := store.GetInterview(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, interview)
}

// handleInterviewFeedback records the interviewer's score and feeds it into
// the application's composite score.
func (s *Server) handleInterviewFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid interview id")
		return
	}

	var req struct {
		Score float64 `json:"score"`
		Notes string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Score < 0 || req.Score > 100 {
		s.errorResponse(w, http.StatusBadRequest, "score must be between 0 and 100")
		return
	}

	userID, _ := middleware.GetUserID(r)
	var interview *db.Interview
	err := s.db.WithTx(r.Context(), func(store *db.Store) error {
		current, err := store.GetInterview(r.Context(), id)
		if err != nil {
			return err
		}
		if current == nil {
			return &applications.ErrNotFound{Kind: "interview", ID: id}
		}

		if err := store.SubmitInterviewFeedback(r.Context(), id, userID, req.Score, req.Notes); err != nil {
			return err
		}

		if current.ApplicationID != nil {
			if err := store.SetApplicationInterviewScore(r.Context(), *current.ApplicationID, req.Score); err != nil {
				return err
			}
			if err := applications.RecomputeScores(r.Context(), store, *current.ApplicationID); err != nil {
				return err
			}
		}

		interview, err = store.GetInterview(r.Context(), id)
		return err
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, interview)
}

// handleListCandidateInterviews lists a candidate's interviews
func (s *Server) handleListCandidateInterviews(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid candidate id")
		return
	}

	interviews, err := s.db.Store().ListInterviewsByCandidate(r.Context(), candidateID)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, interviews)
}

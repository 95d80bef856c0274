package server

import (
	"encoding/json"
	"net/http"

	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/scoring"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// RequisitionRequest is the payload for creating or updating a requisition
type RequisitionRequest struct {
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Summary          string                `json:"summary"`
	Category         string                `json:"category"`
	Skills           []string              `json:"skills"`
	Qualifications   []string              `json:"qualifications"`
	Responsibilities []string              `json:"responsibilities"`
	MinExperience    int                   `json:"min_experience"`
	KnockoutRules    []scoring.KnockoutRule `json:"knockout_rules"`
	Weightings       map[string]float64    `json:"weightings"`
	Questions        []db.Question         `json:"questions"`
	TestPackID       *int64                `json:"test_pack_id"`
}

func (req *RequisitionRequest) validate() error {
	if req.Title == "" {
		return &ErrValidation{Field: "title", Message: "is required"}
	}
	if err := scoring.ValidateWeightings(scoring.Weightings(req.Weightings)); err != nil {
		return &ErrValidation{Field: "weightings", Message: err.Error()}
	}
	for _, rule := range req.KnockoutRules {
		if rule.Type == "" {
			return &ErrValidation{Field: "knockout_rules", Message: "rule type is required"}
		}
	}
	return nil
}

func (req *RequisitionRequest) toRecord(createdBy int64) *db.Requisition {
	return &db.Requisition{
		CreatedBy:        createdBy,
		Title:            req.Title,
		Description:      req.Description,
		Summary:          req.Summary,
		Category:         req.Category,
		Skills:           db.StringArray(req.Skills),
		Qualifications:   db.StringArray(req.Qualifications),
		Responsibilities: db.StringArray(req.Responsibilities),
		MinExperience:    req.MinExperience,
		KnockoutRules:    db.RuleList(req.KnockoutRules),
		Weightings:       db.WeightMap(req.Weightings),
		Questions:        db.QuestionList(req.Questions),
		TestPackID:       req.TestPackID,
		IsActive:         true,
	}
}

// handleCreateRequisition creates a job requisition
func (s *Server) handleCreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req RequisitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		s.handleError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	store := s.db.Store()
	id, err := store.CreateRequisition(r.Context(), req.toRecord(userID))
	if err != nil {
		s.handleError(w, err)
		return
	}

	created, err := store.GetRequisition(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleListRequisitions lists active requisitions
func (s *Server) handleListRequisitions(w http.ResponseWriter, r *http.Request) {
	requisitions, err := s.db.Store().ListRequisitions(r.Context(), db.RequisitionFilters{
		Category: r.URL.Query().Get("category"),
		Limit:    int(queryInt(r, "limit")),
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, requisitions)
}

// handleGetRequisition retrieves one requisition
func (s *Server) handleGetRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	requisition, err := s.db.Store().GetRequisition(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if requisition == nil {
		s.errorResponse(w, http.StatusNotFound, "requisition not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, requisition)
}

// handleUpdateRequisition replaces the mutable fields of a requisition
func (s *Server) handleUpdateRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	var req RequisitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		s.handleError(w, err)
		return
	}

	store := s.db.Store()
	existing, err := store.GetRequisition(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if existing == nil {
		s.errorResponse(w, http.StatusNotFound, "requisition not found")
		return
	}

	record := req.toRecord(existing.CreatedBy)
	record.ID = id
	if err := store.UpdateRequisition(r.Context(), record); err != nil {
		s.handleError(w, err)
		return
	}

	updated, err := store.GetRequisition(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteRequisition soft-deletes a requisition
func (s *Server) handleDeleteRequisition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	if err := s.db.Store().SoftDeleteRequisition(r.Context(), id); err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/offers"
)

// handleCreateOffer drafts an offer for an application
func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var input offers.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	offer, err := s.offers.Create(r.Context(), s.offerActor(r), input)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, offer)
}

// handleGetOffer retrieves one offer
func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	offer, err := s.offers.Get(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, offer)
}

// offerTransition handles the transitions that only carry an optional reason
func (s *Server) offerTransition(w http.ResponseWriter, r *http.Request,
	move func(actor offers.Actor, id int64, reason string) (*db.Offer, error)) {
	id, ok := pathID(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	offer, err := move(s.offerActor(r), id, req.Reason)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, offer)
}

// handleReviewOffer moves a draft offer to reviewed
func (s *Server) handleReviewOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, _ string) (*db.Offer, error) {
		return s.offers.Review(r.Context(), actor, id)
	})
}

// handleApproveOffer approves a reviewed offer and sends it to the candidate
func (s *Server) handleApproveOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, _ string) (*db.Offer, error) {
		return s.offers.Approve(r.Context(), actor, id)
	})
}

// handleSignOffer captures the candidate's signature on a sent offer
func (s *Server) handleSignOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, _ string) (*db.Offer, error) {
		return s.offers.Sign(r.Context(), actor, id)
	})
}

// handleRejectOffer rejects a reviewed offer
func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, reason string) (*db.Offer, error) {
		return s.offers.Reject(r.Context(), actor, id, reason)
	})
}

// handleExpireOffer expires a sent offer
func (s *Server) handleExpireOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, reason string) (*db.Offer, error) {
		return s.offers.Expire(r.Context(), actor, id, reason)
	})
}

// handleWithdrawOffer withdraws an approved offer
func (s *Server) handleWithdrawOffer(w http.ResponseWriter, r *http.Request) {
	s.offerTransition(w, r, func(actor offers.Actor, id int64, reason string) (*db.Offer, error) {
		return s.offers.Withdraw(r.Context(), actor, id, reason)
	})
}

package server

import (
	"net/http"
	"strconv"

	"github.com/recruitflow/recruitflow/internal/analysis"
	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/offers"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
)

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// queryInt parses an optional numeric query parameter
func queryInt(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}

// applicationActor builds the application-service actor from the request
func (s *Server) applicationActor(r *http.Request) applications.Actor {
	userID, _ := middleware.GetUserID(r)
	role, _ := middleware.GetRole(r)
	return applications.Actor{
		UserID:    userID,
		Role:      role,
		IPAddress: s.extractClientID(r),
		UserAgent: r.UserAgent(),
	}
}

// offerActor builds the offer-service actor from the request
func (s *Server) offerActor(r *http.Request) offers.Actor {
	userID, _ := middleware.GetUserID(r)
	role, _ := middleware.GetRole(r)
	return offers.Actor{
		UserID:    userID,
		Role:      role,
		IPAddress: s.extractClientID(r),
		UserAgent: r.UserAgent(),
	}
}

// analysisActor builds the analysis-pipeline actor from the request
func (s *Server) analysisActor(r *http.Request) analysis.Actor {
	userID, _ := middleware.GetUserID(r)
	return analysis.Actor{
		UserID:    userID,
		IPAddress: s.extractClientID(r),
		UserAgent: r.UserAgent(),
	}
}

// Package server provides the HTTP REST API and websocket endpoint for the
// recruitment backend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recruitflow/recruitflow/internal/analysis"
	"github.com/recruitflow/recruitflow/internal/applications"
	"github.com/recruitflow/recruitflow/internal/chat"
	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/recruitflow/recruitflow/internal/db"
	"github.com/recruitflow/recruitflow/internal/mail"
	"github.com/recruitflow/recruitflow/internal/offers"
	"github.com/recruitflow/recruitflow/internal/server/middleware"
	"github.com/recruitflow/recruitflow/internal/server/ratelimit"
	"github.com/recruitflow/recruitflow/internal/storage"
)

// Server represents the HTTP server and its wired services
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	applications *applications.Service
	offers       *offers.Service
	pipeline     *analysis.Pipeline
	chatService  *chat.Service
	hub          *chat.Hub
	mailer       *mail.Dispatcher

	workerCount int
}

// New creates a server instance with every subsystem wired
func New(cfg *config.Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Server{
		db:          database,
		workerCount: cfg.WorkerCount,
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.userService = NewUserService(database)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	objects, err := storage.NewLocalStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		return nil, err
	}
	s.mailer = mail.NewDispatcher(&mail.LogSender{})

	var analyzer analysis.Analyzer
	if cfg.GeminiAPIKey != "" {
		analyzer, err = analysis.NewGeminiAnalyzer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create analyzer: %w", err)
		}
	} else {
		log.Println("GEMINI_API_KEY not set, CV analysis uses keyword matching only")
	}
	s.pipeline = analysis.NewPipeline(database, analysis.PlainExtractor{}, analyzer, objects, cfg.BaselineCVScore)

	s.hub = chat.NewHub()
	s.chatService = chat.NewService(database, s.hub)
	s.applications = applications.NewService(database)
	s.offers = offers.NewService(database, offers.PlainRenderer{}, objects, s.mailer)

	mux := http.NewServeMux()
	s.routes(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// routes registers every endpoint with its role gate
func (s *Server) routes(mux *http.ServeMux) {
	authed := middleware.Auth(s.jwtService.AsTokenValidator())
	candidate := s.requireRoles(db.RoleCandidate)
	staff := s.requireRoles(db.RoleAdmin, db.RoleHR, db.RoleHiringManager)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)

	mux.Handle("GET /api/users/me", authed(http.HandlerFunc(s.handleGetMe)))
	mux.Handle("PUT /api/users/me/profile", authed(http.HandlerFunc(s.handleUpdateProfile)))

	// requisitions
	mux.Handle("POST /api/requisitions", s.requireRoles(db.RoleAdmin, db.RoleHR)(http.HandlerFunc(s.handleCreateRequisition)))
	mux.Handle("GET /api/requisitions", authed(http.HandlerFunc(s.handleListRequisitions)))
	mux.Handle("GET /api/requisitions/{id}", authed(http.HandlerFunc(s.handleGetRequisition)))
	mux.Handle("PUT /api/requisitions/{id}", s.requireRoles(db.RoleAdmin, db.RoleHR)(http.HandlerFunc(s.handleUpdateRequisition)))
	mux.Handle("DELETE /api/requisitions/{id}", s.requireRoles(db.RoleAdmin)(http.HandlerFunc(s.handleDeleteRequisition)))

	// candidate application surface
	mux.Handle("POST /api/candidate/apply/{job_id}", candidate(http.HandlerFunc(s.handleApply)))
	mux.Handle("POST /api/candidate/applications/{id}/draft", candidate(http.HandlerFunc(s.handleSaveDraft)))
	mux.Handle("PUT /api/candidate/applications/submit_draft/{id}", candidate(http.HandlerFunc(s.handleSubmitDraft)))
	mux.Handle("POST /api/candidate/applications/{id}/assessment", candidate(http.HandlerFunc(s.handleSubmitAssessment)))
	mux.Handle("POST /api/candidate/upload_resume/{app_id}", candidate(http.HandlerFunc(s.handleUploadResume)))
	mux.Handle("GET /api/candidate/cv-analyses/{id}", candidate(http.HandlerFunc(s.handleGetCVAnalysis)))
	mux.Handle("GET /api/candidate/applications", candidate(http.HandlerFunc(s.handleListMyApplications)))

	// staff review surface
	mux.Handle("GET /api/applications", staff(http.HandlerFunc(s.handleListApplications)))
	mux.Handle("GET /api/applications/{id}", staff(http.HandlerFunc(s.handleGetApplication)))
	mux.Handle("POST /api/applications/{id}/review", s.requireRoles(db.RoleAdmin, db.RoleHR)(http.HandlerFunc(s.handleReviewApplication)))

	// offers
	mux.Handle("POST /api/offer", s.requireRoles(db.RoleAdmin)(http.HandlerFunc(s.handleCreateOffer)))
	mux.Handle("GET /api/offer/{id}", authed(http.HandlerFunc(s.handleGetOffer)))
	mux.Handle("POST /api/offer/{id}/review", s.requireRoles(db.RoleHiringManager)(http.HandlerFunc(s.handleReviewOffer)))
	mux.Handle("POST /api/offer/{id}/approve", s.requireRoles(db.RoleHR)(http.HandlerFunc(s.handleApproveOffer)))
	mux.Handle("POST /api/offer/{id}/sign", candidate(http.HandlerFunc(s.handleSignOffer)))
	mux.Handle("POST /api/offer/{id}/reject", s.requireRoles(db.RoleHiringManager, db.RoleHR)(http.HandlerFunc(s.handleRejectOffer)))
	mux.Handle("POST /api/offer/{id}/expire", s.requireRoles(db.RoleHR)(http.HandlerFunc(s.handleExpireOffer)))
	mux.Handle("POST /api/offer/{id}/withdraw", s.requireRoles(db.RoleHR)(http.HandlerFunc(s.handleWithdrawOffer)))

	// interviews
	mux.Handle("POST /api/interviews", staff(http.HandlerFunc(s.handleScheduleInterview)))
	mux.Handle("POST /api/interviews/{id}/feedback", staff(http.HandlerFunc(s.handleInterviewFeedback)))
	mux.Handle("GET /api/interviews/candidate/{id}", staff(http.HandlerFunc(s.handleListCandidateInterviews)))

	// notifications
	mux.Handle("GET /api/notifications", authed(http.HandlerFunc(s.handleListNotifications)))
	mux.Handle("POST /api/notifications/{id}/read", authed(http.HandlerFunc(s.handleMarkNotificationRead)))

	// chat
	mux.Handle("GET /api/chat/threads", authed(http.HandlerFunc(s.handleListThreads)))
	mux.Handle("POST /api/chat/threads", authed(http.HandlerFunc(s.handleCreateThread)))
	mux.Handle("GET /api/chat/threads/{id}/messages", authed(http.HandlerFunc(s.handleListMessages)))
	mux.Handle("POST /api/chat/threads/{id}/messages", authed(http.HandlerFunc(s.handleSendMessage)))
	mux.Handle("GET /api/chat/search", authed(http.HandlerFunc(s.handleSearchMessages)))
	mux.Handle("GET /api/chat/presence", authed(http.HandlerFunc(s.handleGetPresence)))
	mux.Handle("GET /api/chat/ws", authed(http.HandlerFunc(s.handleWebsocket)))
}

func (s *Server) requireRoles(roles ...string) func(http.Handler) http.Handler {
	return middleware.RequireRoles(s.jwtService.AsTokenValidator(), s.userService, roles...)
}

// Start begins listening for requests and blocks until shutdown
func (s *Server) Start() error {
	s.mailer.Start(context.Background())
	s.pipeline.Start(s.workerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.pipeline.Stop()
	s.mailer.Stop()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleError maps a domain error onto its HTTP response
func (s *Server) handleError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// For now this uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

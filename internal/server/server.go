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

	"github.com/jonathan/resume-studio/internal/autosave"
	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/llm"
	"github.com/jonathan/resume-studio/internal/server/middleware"
	"github.com/jonathan/resume-studio/internal/server/ratelimit"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/store/local"
	"github.com/jonathan/resume-studio/internal/tailor"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	resumes     store.ResumeStore
	analyzer    *tailor.Analyzer
	llmClient   llm.Client
	sessions    *SessionManager
	rateLimiter *ratelimit.Limiter

	// Authentication. Populated only when a database URL is configured;
	// nil means the server runs against the local device store as the
	// guest user and every auth route is absent.
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	pg         *store.Postgres
	localStore *local.Store
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string // empty selects the local device store
	DataDir     string
	APIKey      string
	Autosave    autosave.Config
}

// New creates a new server instance. The backend is chosen here, once: a
// database URL selects the remote Postgres store with JWT authentication,
// otherwise documents live in a local SQLite file owned by the guest user.
func New(ctx context.Context, cfg Config) (*Server, error) {
	s := &Server{}

	if cfg.DatabaseURL != "" {
		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.pg = pg
		s.resumes = pg

		passwordConfig, err := config.NewPasswordConfig()
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to create password config: %w", err)
		}
		s.userService = NewUserService(pg, passwordConfig)

		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		s.jwtService = NewJWTService(jwtConfig)
		s.authHandler = NewAuthHandler(s.userService, s.jwtService)
	} else {
		localStore, err := local.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		s.localStore = localStore
		s.resumes = localStore
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		s.closeStores()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	s.llmClient = client
	s.analyzer = tailor.NewAnalyzer(client)

	s.sessions = NewSessionManager(s.resumes, cfg.Autosave)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.authHandler != nil {
		mux.HandleFunc("POST /auth/register", s.authHandler.Register)
		mux.HandleFunc("POST /auth/login", s.authHandler.Login)
		mux.Handle("PUT /auth/password", s.protected(s.handleUpdatePassword))
	}

	// Resume CRUD
	mux.Handle("POST /resumes", s.protected(s.handleCreateResume))
	mux.Handle("GET /resumes", s.protected(s.handleListResumes))
	mux.Handle("GET /resumes/{id}", s.protected(s.handleGetResume))
	mux.Handle("DELETE /resumes/{id}", s.protected(s.handleDeleteResume))
	mux.Handle("POST /resumes/{id}/duplicate", s.protected(s.handleDuplicateResume))

	// Editing and autosave
	mux.Handle("PATCH /resumes/{id}", s.protected(s.handleEditResume))
	mux.Handle("GET /resumes/{id}/save-status", s.protected(s.handleSaveStatus))
	mux.Handle("POST /resumes/{id}/flush", s.protected(s.handleFlush))
	mux.Handle("GET /resumes/{id}/readiness", s.protected(s.handleReadiness))

	// AI endpoints
	mux.Handle("POST /tailor", s.protected(s.handleTailor))
	mux.Handle("POST /resumes/{id}/suggestions/apply", s.protected(s.handleApplySuggestion))
	mux.Handle("POST /ai/rewrite-bullet", s.protected(s.handleRewriteBullet))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Long timeout for LLM calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// protected wraps a handler with JWT authentication when the server runs
// against a database. In local mode requests pass through as the guest user.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	if s.jwtService == nil {
		return h
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

// requestUserID resolves the acting user for a request: the JWT subject in
// database mode, the fixed guest identity in local mode.
func (s *Server) requestUserID(r *http.Request) (string, error) {
	if s.jwtService == nil {
		return local.GuestUserID, nil
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return "", err
	}
	return userID.String(), nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
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

	// Flush pending edits before the stores go away
	if err := s.sessions.CloseAll(ctx); err != nil {
		log.Printf("Error flushing sessions: %v", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llmClient != nil {
		if err := s.llmClient.Close(); err != nil {
			log.Printf("Error closing LLM client: %v", err)
		}
	}
	s.closeStores()
	log.Println("Server stopped")
	return nil
}

func (s *Server) closeStores() {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.localStore != nil {
		if err := s.localStore.Close(); err != nil {
			log.Printf("Error closing local store: %v", err)
		}
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
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

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
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
	mode := "local"
	if s.pg != nil {
		mode = "database"
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "mode": mode})
}

// handleUpdatePassword handles password update requests for the
// authenticated user.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
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

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
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

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
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

	// Log rate limit hit
	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

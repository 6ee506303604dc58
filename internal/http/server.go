// Package http exposes the budgeting API as JSON over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgetfriendly/internal/backend"
	"budgetfriendly/internal/cache"
	"budgetfriendly/internal/core"
	"budgetfriendly/internal/voice"
)

type Server struct {
	http.Server
	store       backend.Backend
	voiceParser *voice.Parser
	rateLimiter *rateLimiter

	// Derived views are cached per user and budget; any write for a user
	// drops that user's entries.
	summaryCache *cache.LRUCache[core.Summary]
	planCache    *cache.LRUCache[core.Plan]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store backend.Backend) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:        store,
		voiceParser:  voice.NewParser(nil),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[core.Summary](200, 5*time.Minute),
		planCache:    cache.NewLRUCache[core.Plan](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.planCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/budgets", s.withSecurityHeaders(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withSecurityHeaders(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/{id}", s.withSecurityHeaders(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withSecurityHeaders(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withSecurityHeaders(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/budgets/{id}/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/budgets/{id}/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/budgets/{id}/transactions/reorder", s.withSecurityHeaders(s.handleReorderTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withSecurityHeaders(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/{id}/move", s.withSecurityHeaders(s.handleMoveTransaction))

	mux.HandleFunc("GET /api/budgets/{id}/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/budgets/{id}/plan", s.withSecurityHeaders(s.handlePlan))
	mux.HandleFunc("GET /api/budgets/{id}/suggestions", s.withSecurityHeaders(s.handleSuggestions))

	mux.HandleFunc("GET /api/budgets/{id}/recurring", s.withSecurityHeaders(s.handleListRecurring))
	mux.HandleFunc("POST /api/budgets/{id}/recurring", s.withSecurityHeaders(s.handleCreateRecurring))

	mux.HandleFunc("POST /api/voice", s.withSecurityHeaders(s.handleVoice))

	return s
}

// Shutdown stops the server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", ip,
			"user_id", userID(r))

		// Rate limit mutating requests only; reads are cached anyway.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", ip, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) cacheKey(uid, budgetID string) string {
	return uid + ":" + budgetID
}

// invalidateDerived drops every cached summary and plan for the user. Writes
// are rare compared to reads, so per-user invalidation keeps this simple.
func (s *Server) invalidateDerived(uid string) {
	s.summaryCache.DeletePrefix(uid + ":")
	s.planCache.DeletePrefix(uid + ":")
}

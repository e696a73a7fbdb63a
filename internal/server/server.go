// Package server provides the local browser gateway: the client's views as
// guarded HTTP routes backed by the job board API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/jobboard/internal/api"
	"github.com/jonathan/jobboard/internal/config"
	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/inflight"
	"github.com/jonathan/jobboard/internal/server/middleware"
	"github.com/jonathan/jobboard/internal/server/ratelimit"
	"github.com/jonathan/jobboard/internal/session"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	client       *api.Client
	sessions     *session.Store
	guard        *guard.Guard
	tracker      *inflight.Tracker
	limiter      *ratelimit.Limiter
	origins      map[string]bool
	logger       *zap.Logger
	pollInterval time.Duration
}

// Config holds server configuration
type Config struct {
	ListenAddr   string
	PollInterval time.Duration
	Policy       guard.Policy

	// AllowedOrigins are other web origins, such as a dev server, that may
	// call the gateway from a browser. Everything else must be same-origin.
	AllowedOrigins []string

	// RateLimits throttles credential and upload routes per client.
	// nil means ratelimit.DefaultRules; an empty slice disables throttling.
	RateLimits []ratelimit.Rule
}

// New creates a new server instance
func New(cfg Config, client *api.Client, sessions *session.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = config.DefaultListenAddr
	}
	if cfg.RateLimits == nil {
		cfg.RateLimits = ratelimit.DefaultRules()
	}

	s := &Server{
		client:       client,
		sessions:     sessions,
		guard:        guard.New(sessions, cfg.Policy),
		tracker:      inflight.New(),
		limiter:      ratelimit.New(cfg.RateLimits),
		origins:      make(map[string]bool, len(cfg.AllowedOrigins)),
		logger:       logger,
		pollInterval: cfg.PollInterval,
	}

	for _, o := range cfg.AllowedOrigins {
		s.origins[strings.TrimRight(o, "/")] = true
	}

	// Views, all behind the route guard
	views := http.NewServeMux()
	views.HandleFunc("GET /login", s.handleAuthView)
	views.HandleFunc("GET /register", s.handleAuthView)
	views.HandleFunc("GET /password-reset", s.handleAuthView)
	views.HandleFunc("GET /password-reset-confirm", s.handleAuthView)
	views.HandleFunc("POST /login", s.handleLogin)
	views.HandleFunc("POST /register", s.handleRegister)
	views.HandleFunc("POST /password-reset", s.handlePasswordReset)
	views.HandleFunc("POST /password-reset-confirm", s.handlePasswordResetConfirm)

	views.HandleFunc("GET /{$}", s.handleHome)
	views.HandleFunc("GET /jobs", s.handleListJobs)
	views.HandleFunc("POST /jobs", s.handleCreateJob)
	views.HandleFunc("PUT /jobs/{id}", s.handleUpdateJob)
	views.HandleFunc("GET /applications", s.handleListApplications)
	views.HandleFunc("PUT /applications/{id}/status", s.handleUpdateStatus)
	views.HandleFunc("POST /applications/{id}/analyze", s.handleAnalyzeApplication)
	views.HandleFunc("GET /notifications", s.handleNotifications)
	views.HandleFunc("POST /bulk-analysis", s.handleBulkAnalysis)
	views.HandleFunc("GET /profile", s.handleProfile)
	views.HandleFunc("PUT /profile/bio", s.handleSaveProfile)
	views.HandleFunc("GET /events/unread-count", s.handleUnreadEvents)

	// Always reachable
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.Handle("/", middleware.Guard(s.guard)(views))

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           middleware.RequestID(s.withLogging(s.withOrigin(ratelimit.Middleware(s.limiter)(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// Open event streams end when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", zap.String("addr", s.httpServer.Addr), zap.String("api", s.client.BaseURL()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("gateway stopped")
	return nil
}

// withOrigin keeps browsers on other sites away from the gateway's session.
// A request carrying a foreign Origin is refused outright; origins listed
// in AllowedOrigins get CORS headers echoing that origin only.
func (s *Server) withOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || sameOrigin(origin, r.Host) {
			next.ServeHTTP(w, r)
			return
		}
		if !s.origins[origin] {
			s.logger.Warn("refused cross-origin request",
				zap.String("origin", origin),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			s.jsonResponse(w, http.StatusForbidden, ErrorResponse{Error: "cross-origin requests are not allowed"})
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sameOrigin reports whether origin names the host the request was sent to.
func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(r)))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"session": s.sessions.State().String(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes err as JSON. A rejected token is reported with a
// redirect hint; the session itself is left for the user to replace.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if api.IsUnauthorized(err) {
		s.logger.Info("backend rejected the session token", zap.String("path", r.URL.Path))
	}

	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r)),
			zap.Error(err))
	}
	s.jsonResponse(w, status, toResponse(err))
}

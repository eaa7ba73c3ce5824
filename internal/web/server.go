// Package web provides the HTTP server and handlers for the claims API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/core"
	"github.com/JonMunkholm/claims/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Version is reported by the health and chat info endpoints.
const Version = "0.1.0"

// ServiceName is reported by the health endpoint.
const ServiceName = "insurance-claims"

// Server is the HTTP server for the claims API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	now     func() time.Time

	limiters []*rateLimiter
}

// NewServer creates a Server with its middleware and routes installed.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		now:     time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// The dashboard shows aggregate claim data. Browsers cannot attach
	// X-API-Key, so it stays behind auth unless PUBLIC_DASHBOARD opts out.
	dashboard := s.router.With()
	if !s.cfg.Security.PublicDashboard {
		dashboard = s.router.With(middleware.APIKeyAuth(s.cfg.Security))
	}
	dashboard.Get("/", s.handleDashboard)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security))

			// Imports are bounded by IMPORT_TIMEOUT rather than the request deadline.
			importRoute := r.With()
			if s.cfg.Rate.Enabled {
				importRoute = r.With(s.newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware)
			}
			importRoute.Post("/claims/import", s.handleImport)
			r.Get("/imports/status", s.handleImportStatus)

			r.Group(func(r chi.Router) {
				if s.cfg.Server.RequestTimeout > 0 {
					r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
				}

				r.Get("/claims", s.handleListClaims)
				r.Post("/claims", s.handleCreateClaim)
				r.Get("/claims/stats/summary", s.handleSummary)
				r.Get("/claims/{claimID}", s.handleGetClaim)
				r.Put("/claims/{claimID}", s.handleUpdateClaim)
				r.Delete("/claims/{claimID}", s.handleDeleteClaim)

				r.Post("/chat", s.handleChat)
				r.Get("/chat/info", s.handleChatInfo)
			})
		})
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// the rate limiter cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close stops background goroutines without touching the listener. Tests
// that only use Handler call it.
func (s *Server) Close() {
	for _, rl := range s.limiters {
		rl.stop()
	}
}

// Handler returns the root handler for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// The dashboard uses inline styles only.
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a fixed-window request limiter keyed by client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a limiter and registers it so Close stops its
// cleanup goroutine.
func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	s.limiters = append(s.limiters, rl)
	go rl.cleanup(window)
	return rl
}

// cleanup drops visitors idle for two windows until stop is called.
func (rl *rateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow consumes a token for ip and reports whether one was available.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondErrorJSON(w, core.UserMessage{
				Message: "Too many requests",
				Action:  "Wait a minute and try again",
				Code:    "RATE001",
			}, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status.
// Encoding errors are only logged because the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"neon-snake/internal/config"
)

const defaultDebugAddr = "127.0.0.1:6060"

// Server is the debug HTTP server: metrics, pprof, HUD and frame capture.
type Server struct {
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	addr        string
}

// NewServer builds the debug server from obs settings and the router sources
// in cfg. Nothing listens until Start.
func NewServer(obs config.ObservabilityConfig, cfg RouterConfig) *Server {
	s := &Server{addr: debugAddr(obs)}

	if cfg.RateLimiter == nil {
		s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
		cfg.RateLimiter = s.rateLimiter
	}
	if cfg.BasicAuthUser == "" {
		cfg.BasicAuthUser = obs.BasicAuthUser
		cfg.BasicAuthPass = obs.BasicAuthPass
	}
	s.router = NewRouter(cfg)

	return s
}

// debugAddr keeps pprof on loopback unless external binding is explicitly allowed.
func debugAddr(obs config.ObservabilityConfig) string {
	addr := obs.ListenAddr
	if addr == "" {
		return defaultDebugAddr
	}
	if obs.AllowExternal {
		return addr
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		log.Printf("⚠️ Invalid debug address %q, using %s", addr, defaultDebugAddr)
		return defaultDebugAddr
	}
	if host == "localhost" {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}

	log.Println("⚠️ Debug server forced to localhost for security")
	return defaultDebugAddr
}

// Addr returns the address Start will listen on.
func (s *Server) Addr() string {
	return s.addr
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens in the background. Errors other than shutdown are logged.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", s.addr)
		log.Printf("   - metrics: http://%s/metrics", s.addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", s.addr)
		log.Printf("   - hud:     http://%s/api/hud", s.addr)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}

// Stop shuts the listener down and stops background workers.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("⚠️ Debug server shutdown: %v", err)
		}
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// StartDebugServer builds and starts the debug server when enabled.
// Returns nil when obs.Enabled is false.
func StartDebugServer(obs config.ObservabilityConfig, cfg RouterConfig) *Server {
	if !obs.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}
	s := NewServer(obs, cfg)
	s.Start()
	return s
}

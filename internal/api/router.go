package api

import (
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neon-snake/internal/game"
	"neon-snake/internal/render"
)

// SnapshotSource exposes the last two accepted snapshots.
// *game.Store satisfies it; its reads are safe from any goroutine.
type SnapshotSource interface {
	Pair() (prev, cur *game.Snapshot)
}

// HUDSource returns the labels currently on screen.
type HUDSource interface {
	Labels() render.Labels
}

// FrameSource returns the most recent frame as PNG, or false before the first frame.
type FrameSource interface {
	PNG() ([]byte, bool)
}

// ConnectionSource reports whether the snapshot feed is connected.
type ConnectionSource interface {
	IsConnected() bool
}

// StreamerInterface defines the streamer methods used by the API.
type StreamerInterface interface {
	// Start begins streaming to the configured RTMP endpoint
	Start() error
	// Stop ends the current stream
	Stop()
	// IsStreaming returns whether the stream is currently active
	IsStreaming() bool
	// GetStats returns current streaming statistics
	GetStats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the debug router.
// Every source is optional; routes for missing sources answer 503.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Snapshots:      game.NewStore(),
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	Snapshots SnapshotSource
	HUD       HUDSource
	Frames    FrameSource
	Feed      ConnectionSource
	Streamer  StreamerInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	// If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost so browser overlays can poll /api/hud.
	CORSOrigins []string

	// BasicAuthUser enables basic auth on every route except /health.
	BasicAuthUser string
	BasicAuthPass string

	// DisableLogging disables the request logger middleware.
	DisableLogging bool
}

// routerHandlers holds the sources the handlers read from.
type routerHandlers struct {
	snapshots SnapshotSource
	hud       HUDSource
	frames    FrameSource
	feed      ConnectionSource
	streamer  StreamerInterface
}

// NewRouter constructs the debug router with all middleware and routes.
//
// IMPORTANT: This function is PURE - no goroutines beyond the rate limiter's
// cleanup, no listeners. Safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{
		snapshots: cfg.Snapshots,
		hud:       cfg.HUD,
		frames:    cfg.Frames,
		feed:      cfg.Feed,
		streamer:  cfg.Streamer,
	}

	// Health stays open so probes work without credentials
	r.Get("/health", h.handleHealth)

	r.Group(func(r chi.Router) {
		if cfg.BasicAuthUser != "" {
			r.Use(basicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
		}

		r.Handle("/metrics", promhttp.Handler())

		// pprof endpoints for profiling
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)

		r.Get("/frame.png", h.handleFrame)

		r.Route("/api", func(r chi.Router) {
			r.Get("/snapshot", h.handleSnapshot)
			r.Get("/hud", h.handleHUD)

			// Stream control
			r.Post("/stream/start", h.handleStreamStart)
			r.Post("/stream/stop", h.handleStreamStop)
			r.Get("/stream/status", h.handleStreamStatus)
		})
	})

	return r
}

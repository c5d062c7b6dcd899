// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for canvas, client, visual and stream settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// ReconnectDelay is the fixed wait between a lost (or failed) connection and the
// next attempt. It is a build-time constant: no backoff, no attempt limit.
const ReconnectDelay = 1000 * time.Millisecond

// =============================================================================
// VIDEO & CANVAS CONFIGURATION
// =============================================================================

// VideoConfig holds all video/canvas related settings.
// These values are shared between the render loop and the stream encoder.
type VideoConfig struct {
	Width   int // Canvas/stream width in pixels
	Height  int // Canvas/stream height in pixels
	FPS     int // Frames per second for the headless frame clock
	Bitrate int // Stream bitrate in kbps
}

// DefaultVideo returns the default video configuration.
// Vertical 720x1280 matches the portrait 20x30 board of the live stream.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:   720,
		Height:  1280,
		FPS:     30,
		Bitrate: 4000, // kbps
	}
}

// VideoFromEnv returns video configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("STREAM_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("STREAM_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("STREAM_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if br := getEnvInt("STREAM_BITRATE", 0); br > 0 {
		cfg.Bitrate = br
	}

	return cfg
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds the snapshot feed settings.
type ClientConfig struct {
	ServerURL      string        // websocket endpoint of the game server
	ReconnectDelay time.Duration // always ReconnectDelay; carried for logging
	RecordPath     string        // optional JSONL capture of inbound messages
}

// DefaultClient returns the default client configuration.
func DefaultClient() ClientConfig {
	return ClientConfig{
		ServerURL:      "ws://localhost:8000/ws",
		ReconnectDelay: ReconnectDelay,
	}
}

// ClientFromEnv returns client configuration with environment variable overrides.
func ClientFromEnv() ClientConfig {
	cfg := DefaultClient()

	if u := os.Getenv("SNAKE_SERVER_URL"); u != "" {
		cfg.ServerURL = u
	}
	cfg.RecordPath = os.Getenv("RECORD_PATH")

	return cfg
}

// =============================================================================
// VISUAL CONFIGURATION
// =============================================================================

// VisualConfig holds the aesthetic tuning knobs. The values differed between
// client variants, so they are configuration rather than behavior.
type VisualConfig struct {
	HypeThreshold  float64 // hype above this switches the snake to rainbow mode
	RainbowSpeed   float64 // hue degrees per millisecond
	RainbowStep    float64 // hue degrees between consecutive segments
	TrailAlpha     float64 // background overlay alpha (motion trails)
	Scanlines      bool    // paint the static scanline texture
	ShakeFrames    int     // shake duration on a reward
	ShakeMagnitude float64 // peak-to-peak shake jitter in pixels
	HUDHeight      int     // pixels reserved above the board for labels
}

// DefaultVisual returns the default visual configuration.
func DefaultVisual() VisualConfig {
	return VisualConfig{
		HypeThreshold:  20,
		RainbowSpeed:   0.2,
		RainbowStep:    12,
		TrailAlpha:     0.2,
		Scanlines:      true,
		ShakeFrames:    7,
		ShakeMagnitude: 10,
		HUDHeight:      96,
	}
}

// VisualFromEnv returns visual configuration with environment variable overrides.
func VisualFromEnv() VisualConfig {
	cfg := DefaultVisual()

	if v := getEnvFloat("HYPE_THRESHOLD", -1); v >= 0 {
		cfg.HypeThreshold = v
	}
	if v := getEnvFloat("RAINBOW_SPEED", -1); v >= 0 {
		cfg.RainbowSpeed = v
	}
	if v := getEnvFloat("TRAIL_ALPHA", -1); v >= 0 && v <= 1 {
		cfg.TrailAlpha = v
	}
	if os.Getenv("SCANLINES") == "false" {
		cfg.Scanlines = false
	}
	if v := getEnvInt("SHAKE_FRAMES", -1); v >= 0 {
		cfg.ShakeFrames = v
	}
	if v := getEnvFloat("SHAKE_MAGNITUDE", -1); v >= 0 {
		cfg.ShakeMagnitude = v
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds audio mixer settings.
type AudioConfig struct {
	Volume  float64 // Music volume (0.0 to 1.0)
	Enabled bool    // Whether background music is enabled
	Path    string  // OGG Vorbis file looped under the stream
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		Volume:  0.15,
		Enabled: true,
		Path:    "assets/music/neon_loop.ogg",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("MUSIC_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("MUSIC_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if p := os.Getenv("MUSIC_PATH"); p != "" {
		cfg.Path = p
	}

	return cfg
}

// =============================================================================
// STREAM CONFIGURATION
// =============================================================================

// StreamConfig holds the RTMP destination.
type StreamConfig struct {
	RTMPURL   string
	StreamKey string // empty disables the RTMP sink
}

// StreamFromEnv returns the RTMP destination from the environment.
func StreamFromEnv() StreamConfig {
	return StreamConfig{
		RTMPURL:   getEnvWithDefault("RTMP_URL", "rtmp://localhost/live"),
		StreamKey: os.Getenv("STREAM_KEY"),
	}
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // keep on localhost; pprof is exposed here
	AllowExternal bool   // permit a non-loopback ListenAddr
	BasicAuthUser string // empty disables auth
	BasicAuthPass string
}

// ObservabilityFromEnv returns debug server settings.
func ObservabilityFromEnv() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:       os.Getenv("DISABLE_DEBUG_SERVER") != "true",
		ListenAddr:    getEnvWithDefault("DEBUG_ADDR", "127.0.0.1:6060"),
		AllowExternal: os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true",
		BasicAuthUser: os.Getenv("DEBUG_USER"),
		BasicAuthPass: os.Getenv("DEBUG_PASS"),
	}
}

// =============================================================================
// REPLAY CONFIGURATION
// =============================================================================

// ReplayConfig configures the development replay server.
type ReplayConfig struct {
	Path string // JSONL file, one snapshot per line
	Addr string
	FPS  int
}

// ReplayFromEnv returns replay server settings.
func ReplayFromEnv() ReplayConfig {
	cfg := ReplayConfig{
		Path: getEnvWithDefault("REPLAY_PATH", "snapshots.jsonl"),
		Addr: getEnvWithDefault("REPLAY_ADDR", ":8000"),
		FPS:  30,
	}
	if fps := getEnvInt("REPLAY_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Video         VideoConfig
	Client        ClientConfig
	Visual        VisualConfig
	Audio         AudioConfig
	Stream        StreamConfig
	Observability ObservabilityConfig
	Replay        ReplayConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Video:         VideoFromEnv(),
		Client:        ClientFromEnv(),
		Visual:        VisualFromEnv(),
		Audio:         AudioFromEnv(),
		Stream:        StreamFromEnv(),
		Observability: ObservabilityFromEnv(),
		Replay:        ReplayFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

package config

import (
	"testing"
	"time"
)

// TestDefaults verifies the built-in defaults
func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Client.ReconnectDelay != time.Second {
		t.Errorf("Expected reconnect delay 1s, got %v", cfg.Client.ReconnectDelay)
	}
	if DefaultVisual().HypeThreshold != 20 {
		t.Errorf("Expected hype threshold 20, got %v", DefaultVisual().HypeThreshold)
	}
	if DefaultVisual().ShakeFrames != 7 {
		t.Errorf("Expected 7 shake frames, got %d", DefaultVisual().ShakeFrames)
	}
}

// TestEnvOverrides verifies environment variables take precedence
func TestEnvOverrides(t *testing.T) {
	t.Setenv("STREAM_WIDTH", "1080")
	t.Setenv("STREAM_FPS", "60")
	t.Setenv("SNAKE_SERVER_URL", "ws://example.test/ws")
	t.Setenv("HYPE_THRESHOLD", "50")
	t.Setenv("TRAIL_ALPHA", "0.5")
	t.Setenv("SCANLINES", "false")

	cfg := Load()

	if cfg.Video.Width != 1080 {
		t.Errorf("Expected width 1080, got %d", cfg.Video.Width)
	}
	if cfg.Video.FPS != 60 {
		t.Errorf("Expected FPS 60, got %d", cfg.Video.FPS)
	}
	if cfg.Client.ServerURL != "ws://example.test/ws" {
		t.Errorf("Unexpected server URL %q", cfg.Client.ServerURL)
	}
	if cfg.Visual.HypeThreshold != 50 {
		t.Errorf("Expected hype threshold 50, got %v", cfg.Visual.HypeThreshold)
	}
	if cfg.Visual.TrailAlpha != 0.5 {
		t.Errorf("Expected trail alpha 0.5, got %v", cfg.Visual.TrailAlpha)
	}
	if cfg.Visual.Scanlines {
		t.Error("Scanlines should be disabled")
	}
}

// TestInvalidEnvIgnored verifies malformed values fall back to defaults
func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv("STREAM_HEIGHT", "tall")
	t.Setenv("TRAIL_ALPHA", "3")

	cfg := Load()

	if cfg.Video.Height != DefaultVideo().Height {
		t.Errorf("Expected default height, got %d", cfg.Video.Height)
	}
	if cfg.Visual.TrailAlpha != DefaultVisual().TrailAlpha {
		t.Errorf("Expected default trail alpha, got %v", cfg.Visual.TrailAlpha)
	}
}

package streaming

import (
	"errors"
	"image"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"neon-snake/internal/config"
	"neon-snake/internal/effects"
)

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := StreamConfig{Width: 720, Height: 1280, FPS: 30, Bitrate: 4000, OutputFormat: "flv"}

	tests := []struct {
		name      string
		audioPipe bool
		want      []string
		notWant   []string
	}{
		{
			name:      "piped audio",
			audioPipe: true,
			want:      []string{"-s 720x1280", "-r 30", "-i pipe:0", "-f s16le", "-i pipe:3", "-b:v 4000k", "-bufsize 8000k", "-g 60", "-f flv rtmp://host/live/key"},
			notWant:   []string{"anullsrc"},
		},
		{
			name:      "silent audio",
			audioPipe: false,
			want:      []string{"-f lavfi", "anullsrc=channel_layout=stereo:sample_rate=44100"},
			notWant:   []string{"pipe:3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := strings.Join(BuildFFmpegArgs(cfg, "rtmp://host/live/key", tt.audioPipe), " ")
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("Expected %q in %q", w, line)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(line, w) {
					t.Errorf("Did not expect %q in %q", w, line)
				}
			}
		})
	}
}

func TestStreamTarget(t *testing.T) {
	tests := []struct {
		name string
		cfg  StreamConfig
		want string
	}{
		{"url and key", StreamConfig{RTMPURL: "rtmp://a/live", StreamKey: "k"}, "rtmp://a/live/k"},
		{"url only", StreamConfig{RTMPURL: "rtmp://a/live/k"}, "rtmp://a/live/k"},
		{"override", StreamConfig{RTMPURL: "rtmp://a/live", StreamKey: "k", Output: "/dev/null"}, "/dev/null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewStreamManager(tt.cfg).target(); got != tt.want {
				t.Errorf("target() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStreamManagerIdleIgnoresFramesAndCues(t *testing.T) {
	sm := NewStreamManager(StreamConfig{Width: 4, Height: 4})

	sm.SubmitFrame(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	sm.PlayCue(effects.CueEat)

	if sm.IsStreaming() {
		t.Error("Should not be streaming")
	}
	if sm.frameRingBuffer.Available() != 0 {
		t.Error("Idle manager should not buffer frames")
	}
	if sm.audioMixer.Active() != 0 {
		t.Error("Idle manager should not queue cues")
	}

	stats := sm.GetStats()
	if stats["isStreaming"] != false || stats["resolution"] != "4x4" {
		t.Errorf("Unexpected stats: %v", stats)
	}
	sm.Stop() // no-op
}

func TestStreamManagerDefaults(t *testing.T) {
	sm := NewStreamManager(StreamConfig{})
	if sm.config.Width != 720 || sm.config.Height != 1280 || sm.config.FPS != 30 || sm.config.OutputFormat != "flv" {
		t.Errorf("Unexpected defaults: %+v", sm.config)
	}
}

func TestConfigFromApp(t *testing.T) {
	app := config.AppConfig{
		Video:  config.VideoConfig{Width: 360, Height: 640, FPS: 24, Bitrate: 2500},
		Stream: config.StreamConfig{RTMPURL: "rtmp://x/live", StreamKey: "abc"},
		Audio:  config.AudioConfig{Enabled: true, Volume: 0.2, Path: "m.ogg"},
	}
	got := ConfigFromApp(app)
	if got.Width != 360 || got.Height != 640 || got.FPS != 24 || got.Bitrate != 2500 ||
		got.RTMPURL != "rtmp://x/live" || got.StreamKey != "abc" ||
		!got.MusicEnabled || got.MusicVolume != 0.2 || got.MusicPath != "m.ogg" {
		t.Errorf("Unexpected stream config: %+v", got)
	}
}

func TestNoOpStreamer(t *testing.T) {
	n := NewNoOpStreamer("no stream key")
	if err := n.Start(); !errors.Is(err, ErrStreamingDisabled) {
		t.Errorf("Expected ErrStreamingDisabled, got %v", err)
	}
	n.Stop()
	if n.IsStreaming() {
		t.Error("NoOpStreamer never streams")
	}
	if n.GetStats()["message"] != "no stream key" {
		t.Errorf("Unexpected stats: %v", n.GetStats())
	}
}

// TestRealStreamToNull runs the real FFmpeg pipeline against the null muxer.
func TestRealStreamToNull(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping real stream test in short mode")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("FFmpeg not installed, skipping real stream test")
	}

	nullOutput := os.DevNull
	if runtime.GOOS == "windows" {
		nullOutput = "NUL"
	}

	sm := NewStreamManager(StreamConfig{
		Width: 64, Height: 64, FPS: 30, Bitrate: 500,
		Output: nullOutput, OutputFormat: "null",
	})
	if err := sm.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sm.Close()

	if err := sm.Start(); !errors.Is(err, ErrAlreadyStreaming) {
		t.Errorf("Expected ErrAlreadyStreaming, got %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	for i := 0; i < 45; i++ {
		<-ticker.C
		img.Pix[i] = 255
		sm.SubmitFrame(img)
		if i%10 == 0 {
			sm.PlayCue(effects.CueEat)
		}
	}

	sent := sm.GetStats()["framesSent"].(uint64)
	if sent == 0 {
		t.Error("Expected frames delivered to FFmpeg")
	}
	t.Logf("frames sent: %d", sent)

	sm.Stop()
	if sm.IsStreaming() {
		t.Error("Expected stream stopped")
	}
}

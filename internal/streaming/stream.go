// Package streaming pushes rendered frames and effect audio to an RTMP
// endpoint through an FFmpeg child process.
package streaming

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"neon-snake/internal/api"
	"neon-snake/internal/config"
	"neon-snake/internal/effects"
)

// ErrAlreadyStreaming is returned by Start while a stream is running.
var ErrAlreadyStreaming = errors.New("already streaming")

// StreamConfig holds streaming configuration
type StreamConfig struct {
	Width     int
	Height    int
	FPS       int
	Bitrate   int
	RTMPURL   string
	StreamKey string

	// Output overrides the RTMP target, e.g. "/dev/null" with OutputFormat "null".
	Output       string
	OutputFormat string // default "flv"

	MusicEnabled bool
	MusicVolume  float64 // 0.0-1.0, recommended 0.1-0.2
	MusicPath    string
}

// ConfigFromApp assembles a StreamConfig from the loaded application config.
func ConfigFromApp(cfg config.AppConfig) StreamConfig {
	return StreamConfig{
		Width:        cfg.Video.Width,
		Height:       cfg.Video.Height,
		FPS:          cfg.Video.FPS,
		Bitrate:      cfg.Video.Bitrate,
		RTMPURL:      cfg.Stream.RTMPURL,
		StreamKey:    cfg.Stream.StreamKey,
		MusicEnabled: cfg.Audio.Enabled,
		MusicVolume:  cfg.Audio.Volume,
		MusicPath:    cfg.Audio.Path,
	}
}

// StreamManager receives painted frames and cues from the presenter and
// feeds them to FFmpeg. SubmitFrame and PlayCue never block the render loop.
type StreamManager struct {
	config StreamConfig

	mu        sync.RWMutex
	streaming bool
	ffmpeg    *exec.Cmd
	videoPipe io.WriteCloser
	audioPipe io.WriteCloser
	stopChan  chan struct{}
	startTime time.Time
	errors    []string

	audioMixer      *AudioMixer
	frameRingBuffer *FrameRingBuffer
	asyncWriter     *AsyncFrameWriter

	framesDropped int64 // atomic
}

// NewStreamManager creates a stopped stream manager
func NewStreamManager(cfg StreamConfig) *StreamManager {
	if cfg.Width == 0 {
		cfg.Width = 720
	}
	if cfg.Height == 0 {
		cfg.Height = 1280
	}
	if cfg.FPS == 0 {
		cfg.FPS = 30
	}
	if cfg.Bitrate == 0 {
		cfg.Bitrate = 4000
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "flv"
	}

	return &StreamManager{
		config:          cfg,
		stopChan:        make(chan struct{}),
		audioMixer:      NewAudioMixer(&AudioConfig{MusicEnabled: cfg.MusicEnabled, MusicVolume: cfg.MusicVolume, MusicPath: cfg.MusicPath}, cfg.FPS),
		frameRingBuffer: NewFrameRingBuffer(cfg.Width * cfg.Height * 4),
	}
}

// SubmitFrame queues a copy of img for FFmpeg. Frames whose size does not
// match the stream, or that arrive while the buffer is full, are dropped.
func (s *StreamManager) SubmitFrame(img *image.RGBA) {
	if !s.IsStreaming() {
		return
	}
	if img.Bounds().Dx() != s.config.Width || img.Bounds().Dy() != s.config.Height ||
		!s.frameRingBuffer.TryWrite(img.Pix) {
		atomic.AddInt64(&s.framesDropped, 1)
		api.RecordStreamFrameDropped()
	}
}

// PlayCue mixes an effect sound into the stream audio.
func (s *StreamManager) PlayCue(cue effects.Cue) {
	if !s.IsStreaming() {
		return
	}
	s.audioMixer.PlayCue(cue)
}

// target returns the FFmpeg output URL.
func (s *StreamManager) target() string {
	if s.config.Output != "" {
		return s.config.Output
	}
	if s.config.StreamKey == "" {
		return s.config.RTMPURL
	}
	return s.config.RTMPURL + "/" + s.config.StreamKey
}

// BuildFFmpegArgs returns the FFmpeg command line: raw RGBA video on stdin,
// s16le stereo audio on fd 3 (or silence on Windows), x264 + AAC out.
func BuildFFmpegArgs(cfg StreamConfig, target string, audioPipe bool) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", fmt.Sprintf("%d", cfg.FPS),
		"-i", "pipe:0",
	}

	if audioPipe {
		args = append(args,
			"-f", "s16le",
			"-ar", fmt.Sprintf("%d", SampleRate),
			"-ac", fmt.Sprintf("%d", Channels),
			"-i", "pipe:3",
		)
	} else {
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", SampleRate),
		)
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-b:v", fmt.Sprintf("%dk", cfg.Bitrate),
		"-maxrate", fmt.Sprintf("%dk", cfg.Bitrate),
		"-bufsize", fmt.Sprintf("%dk", cfg.Bitrate*2),
		"-pix_fmt", "yuv420p",
		"-g", fmt.Sprintf("%d", cfg.FPS*2),
		"-keyint_min", fmt.Sprintf("%d", cfg.FPS),
		"-sc_threshold", "0",
		"-profile:v", "main",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-ac", fmt.Sprintf("%d", Channels),
		"-map", "0:v",
		"-map", "1:a",
		"-f", cfg.OutputFormat,
		target,
	)
	return args
}

// Start launches FFmpeg and the writer loops.
func (s *StreamManager) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return ErrAlreadyStreaming
	}

	// Windows cannot hand FFmpeg an extra fd, so cues are silent there.
	useAudioPipe := runtime.GOOS != "windows"

	log.Println("🎬 Starting stream...")
	log.Printf("   Resolution: %dx%d @ %d fps", s.config.Width, s.config.Height, s.config.FPS)
	log.Printf("   Bitrate: %dk", s.config.Bitrate)
	if s.config.Output == "" {
		log.Printf("   RTMP URL: %s", s.config.RTMPURL)
		if key := s.config.StreamKey; key != "" {
			log.Printf("   Stream Key: %s...", key[:min(10, len(key))])
		}
	}
	if !useAudioPipe {
		log.Println("   ⚠️ Sound effects: disabled on Windows")
	}

	cmd := exec.Command("ffmpeg", BuildFFmpegArgs(s.config, s.target(), useAudioPipe)...)
	setPlatformProcessGroup(cmd)

	videoPipe, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create video pipe: %w", err)
	}

	var audioReader, audioWriter *os.File
	if useAudioPipe {
		audioReader, audioWriter, err = os.Pipe()
		if err != nil {
			return fmt.Errorf("failed to create audio pipe: %w", err)
		}
		cmd.ExtraFiles = []*os.File{audioReader} // fd 3
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		if audioWriter != nil {
			audioReader.Close()
			audioWriter.Close()
		}
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	if audioReader != nil {
		// The child holds its own copy now.
		audioReader.Close()
	}

	s.ffmpeg = cmd
	s.videoPipe = videoPipe
	if audioWriter != nil {
		s.audioPipe = audioWriter
	}
	s.streaming = true
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.errors = nil
	atomic.StoreInt64(&s.framesDropped, 0)

	s.frameRingBuffer.Reset()
	s.asyncWriter = NewAsyncFrameWriter(s.frameRingBuffer, videoPipe, s.config.Bitrate)
	s.asyncWriter.SetOnConnectionLost(func() {
		s.recordError("connection lost")
		s.Stop()
	})
	s.asyncWriter.Start(s.config.FPS)

	if s.audioPipe != nil {
		go s.audioLoop(s.audioPipe, s.stopChan)
	}

	log.Println("✅ Stream started!")
	return nil
}

// Stop stops streaming and terminates FFmpeg
func (s *StreamManager) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return
	}

	log.Println("🛑 Stopping stream...")

	s.streaming = false
	close(s.stopChan)

	// Stop the writer before closing the pipe it writes to
	if s.asyncWriter != nil {
		s.asyncWriter.Stop()
	}

	if s.videoPipe != nil {
		s.videoPipe.Close()
	}
	if s.audioPipe != nil {
		s.audioPipe.Close()
		s.audioPipe = nil
	}

	if s.ffmpeg != nil && s.ffmpeg.Process != nil {
		pid := s.ffmpeg.Process.Pid
		log.Printf("🔪 Killing FFmpeg process (PID: %d)...", pid)

		done := make(chan error, 1)
		go func(cmd *exec.Cmd) {
			done <- cmd.Wait()
		}(s.ffmpeg)

		killFFmpegProcess(s.ffmpeg, pid)

		select {
		case <-done:
			log.Println("✅ FFmpeg process terminated")
		case <-time.After(3 * time.Second):
			log.Println("⚠️ Timed out waiting for FFmpeg to terminate, killing")
			s.ffmpeg.Process.Kill()
		}
	}

	log.Println("✅ Stream stopped")
}

// Close stops the stream and releases the music decoder.
func (s *StreamManager) Close() {
	s.Stop()
	s.audioMixer.Close()
}

// IsStreaming returns whether the stream is active
func (s *StreamManager) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

func (s *StreamManager) recordError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
	if len(s.errors) > 10 {
		s.errors = s.errors[1:]
	}
}

// GetStats returns streaming statistics
func (s *StreamManager) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := time.Duration(0)
	actualFPS := float64(0)
	framesSent := uint64(0)
	if s.asyncWriter != nil {
		framesSent = s.asyncWriter.FramesWritten()
	}

	if s.streaming && !s.startTime.IsZero() {
		uptime = time.Since(s.startTime)
		if uptime.Seconds() > 0 {
			actualFPS = float64(framesSent) / uptime.Seconds()
		}
	}

	stats := map[string]interface{}{
		"isStreaming":   s.streaming,
		"framesSent":    framesSent,
		"framesDropped": atomic.LoadInt64(&s.framesDropped),
		"uptime":        uptime.String(),
		"actualFps":     fmt.Sprintf("%.1f", actualFPS),
		"resolution":    fmt.Sprintf("%dx%d", s.config.Width, s.config.Height),
		"fps":           s.config.FPS,
		"bitrate":       s.config.Bitrate,
		"errors":        append([]string(nil), s.errors...),
	}
	if s.asyncWriter != nil {
		stats["writer"] = s.asyncWriter.GetStats()
	}
	return stats
}

// audioLoop writes one audio frame per video frame to keep A/V in step.
func (s *StreamManager) audioLoop(pipe io.Writer, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(s.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := pipe.Write(s.audioMixer.GenerateFrame()); err != nil {
				// Pipe closed, stream is stopping
				return
			}
		}
	}
}

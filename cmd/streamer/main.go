// =============================================================================
// NEON SNAKE - HEADLESS STREAMER
// =============================================================================
// Runs the visualization client without a window:
// - Subscribes to the game server's snapshot websocket
// - Renders frames on a fixed clock
// - Pushes them (plus effect audio) to RTMP through FFmpeg
// - Exposes metrics, pprof, HUD and frame capture on the debug server
//
// USAGE:
//   1. Start the game server (or: go run ./cmd/replay)
//   2. go run ./cmd/streamer
// =============================================================================
package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"neon-snake/internal/api"
	"neon-snake/internal/config"
	"neon-snake/internal/feed"
	"neon-snake/internal/game"
	"neon-snake/internal/presenter"
	"neon-snake/internal/render"
	"neon-snake/internal/replay"
	"neon-snake/internal/streaming"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	log.Println("================================")
	log.Println("  NEON SNAKE - STREAMER")
	log.Println("================================")

	cfg := config.Load()
	log.Printf("Server: %s (retry every %v)", cfg.Client.ServerURL, cfg.Client.ReconnectDelay)
	log.Printf("Video: %dx%d @ %d FPS, %dk bitrate", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS, cfg.Video.Bitrate)

	fonts := render.LoadFonts(float64(cfg.Video.Width) / 720)
	p := presenter.New(presenter.Options{
		Width:  cfg.Video.Width,
		Height: cfg.Video.Height,
		Visual: cfg.Visual,
		Fonts:  fonts,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	hud := &api.HUDBoard{}
	frames := api.NewLatestFrame(api.DefaultCaptureInterval)
	p.AddLabelSink(hud)
	p.AddFrameSink(frames)

	// RTMP sink, only when a stream key is configured
	var streamer api.StreamerInterface
	var streamManager *streaming.StreamManager
	if cfg.Stream.StreamKey != "" {
		streamManager = streaming.NewStreamManager(streaming.ConfigFromApp(cfg))
		p.AddFrameSink(streamManager)
		p.AddCueSink(streamManager)
		streamer = streamManager
	} else {
		log.Println("STREAM_KEY not set, RTMP output disabled")
		streamer = streaming.NewNoOpStreamer("STREAM_KEY not set")
	}

	// Optional capture of the raw feed
	var recorder *replay.Recorder
	if cfg.Client.RecordPath != "" {
		recorder = replay.NewRecorder()
		if err := recorder.Start(cfg.Client.RecordPath); err != nil {
			log.Printf("ERROR: recorder disabled: %v", err)
			recorder = nil
		}
	}

	subscriber := feed.NewSubscriber(cfg.Client.ServerURL)
	subscriber.OnSnapshot(func(s *game.Snapshot) {
		p.Post(presenter.SnapshotEvent{Snapshot: s})
	})
	subscriber.OnConnect(func() {
		p.Post(presenter.ConnectedEvent{})
	})
	subscriber.OnDisconnect(func(err error) {
		p.Post(presenter.DisconnectedEvent{Err: err})
	})
	if recorder != nil {
		subscriber.OnRaw(func(raw []byte) {
			recorder.Record(raw)
		})
	}

	debug := api.StartDebugServer(cfg.Observability, api.RouterConfig{
		Snapshots: p.Store(),
		HUD:       hud,
		Frames:    frames,
		Feed:      subscriber,
		Streamer:  streamer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	renderDone := make(chan struct{})
	go func() {
		p.Run(ctx, cfg.Video.FPS)
		close(renderDone)
	}()

	if err := subscriber.Start(); err != nil {
		log.Fatalf("Failed to start snapshot feed: %v", err)
	}

	if streamManager != nil {
		if err := streamManager.Start(); err != nil {
			log.Printf("ERROR: Failed to start stream: %v", err)
			log.Println("Check that ffmpeg is installed and STREAM_KEY is valid")
		}
	}

	// Stats logging goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fs := subscriber.GetStats()
				log.Printf("Feed: received=%d, discarded=%d, reconnects=%d, connected=%v",
					fs.Received, fs.Discarded, fs.Reconnects, fs.Connected)

				stats := streamer.GetStats()
				log.Printf("Stream: frames=%v, dropped=%v, uptime=%v, streaming=%v",
					stats["framesSent"], stats["framesDropped"], stats["uptime"], stats["isStreaming"])

				if recorder != nil {
					rs := recorder.Stats()
					log.Printf("Recorder: written=%d, dropped=%d", rs.Written, rs.Dropped)
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("")
	log.Println("Streamer ready! Press Ctrl+C to stop.")
	log.Println("")
	<-quit

	log.Println("Shutting down...")

	// Producers first, then the loop that drains them
	subscriber.Stop()
	cancel()
	<-renderDone
	p.Close()

	if streamManager != nil {
		streamManager.Close()
	}
	if recorder != nil {
		recorder.Stop()
	}
	if debug != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		debug.Stop(shutdownCtx)
		done()
	}

	log.Println("Goodbye!")
}

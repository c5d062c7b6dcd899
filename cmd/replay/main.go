// =============================================================================
// NEON SNAKE - REPLAY SERVER
// =============================================================================
// Stands in for the game server during development: loads a recorded JSONL
// snapshot file (see RECORD_PATH) and broadcasts it in a loop on /ws.
//
// USAGE:
//   REPLAY_PATH=snapshots.jsonl go run ./cmd/replay
//   SERVER_URL=ws://localhost:8000/ws go run ./cmd/viewer
// =============================================================================
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"neon-snake/internal/config"
	"neon-snake/internal/replay"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	}

	cfg := config.Load().Replay

	frames, err := replay.LoadFrames(cfg.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load %s: %v", cfg.Path, err)
	}
	log.Printf("📼 Loaded %d snapshots from %s", len(frames), cfg.Path)

	srv := replay.NewServer(frames, cfg.FPS)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(runDone)
	}()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("🚀 Replaying at %d FPS on ws://%s/ws", cfg.FPS, cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Replay server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	cancel()
	<-runDone

	shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
	log.Printf("👋 Sent %d frames", srv.FramesSent())
}

// =============================================================================
// NEON SNAKE - DESKTOP VIEWER
// =============================================================================
// Windowed visualization client:
// - Subscribes to the game server's snapshot websocket
// - Paints each tick into a resizable window
// - Plays effect cues and optional background music
//
// KEYS: F fullscreen, D debug line, Esc quit
//
// USAGE:
//   1. Start the game server (or: go run ./cmd/replay)
//   2. go run ./cmd/viewer
// =============================================================================
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/joho/godotenv"

	"neon-snake/internal/api"
	"neon-snake/internal/config"
	"neon-snake/internal/effects"
	"neon-snake/internal/feed"
	"neon-snake/internal/game"
	"neon-snake/internal/presenter"
	"neon-snake/internal/render"
	"neon-snake/internal/replay"
	"neon-snake/internal/streaming"
)

// Viewer adapts the presenter to ebiten's game loop. Update, Draw and Layout
// all run on ebiten's goroutine, which makes it the presenter's owner.
type Viewer struct {
	p      *presenter.Presenter
	feed   *feed.Subscriber
	canvas *image.RGBA
	width  int
	height int
	debug  bool
}

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		v.debug = !v.debug
	}

	v.canvas = v.p.Frame(time.Now())
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.canvas == nil {
		ebitenutil.DebugPrint(screen, "Waiting for the game server...")
		return
	}
	if v.canvas.Bounds().Size() == screen.Bounds().Size() {
		screen.WritePixels(v.canvas.Pix)
	}

	if v.debug {
		fs := v.feed.GetStats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS %.0f  FPS %.0f  particles %d  connected %v  reconnects %d",
			ebiten.ActualTPS(), ebiten.ActualFPS(), v.p.Particles(), fs.Connected, fs.Reconnects))
	}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != v.width || outsideHeight != v.height {
		v.width, v.height = outsideWidth, outsideHeight
		v.p.Resize(outsideWidth, outsideHeight)
		v.canvas = nil
	}
	return outsideWidth, outsideHeight
}

// cuePlayer plays effect cues through ebiten's audio context.
type cuePlayer struct {
	ctx    *audio.Context
	sounds map[effects.Cue][]byte
	volume float64
}

func newCuePlayer(ctx *audio.Context, volume float64) *cuePlayer {
	c := &cuePlayer{ctx: ctx, sounds: make(map[effects.Cue][]byte), volume: volume}
	for _, cue := range []effects.Cue{effects.CueEat, effects.CueGold, effects.CueGameOver, effects.CueVictory} {
		samples := streaming.SynthCue(cue)
		buf := make([]byte, len(samples)*2)
		for i, s := range samples {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
		}
		c.sounds[cue] = buf
	}
	return c
}

func (c *cuePlayer) PlayCue(cue effects.Cue) {
	data, ok := c.sounds[cue]
	if !ok {
		return
	}
	player := c.ctx.NewPlayerFromBytes(data)
	player.SetVolume(c.volume)
	player.Play()
}

// startMusic loops an OGG file in the background. Errors leave the viewer silent.
func startMusic(ctx *audio.Context, cfg config.AudioConfig) *audio.Player {
	f, err := os.Open(cfg.Path)
	if err != nil {
		log.Printf("⚠️ Music disabled: %v", err)
		return nil
	}
	stream, err := vorbis.DecodeWithSampleRate(streaming.SampleRate, f)
	if err != nil {
		log.Printf("⚠️ Music disabled: %v", err)
		f.Close()
		return nil
	}
	player, err := ctx.NewPlayer(audio.NewInfiniteLoop(stream, stream.Length()))
	if err != nil {
		log.Printf("⚠️ Music disabled: %v", err)
		f.Close()
		return nil
	}
	player.SetVolume(cfg.Volume)
	player.Play()
	log.Printf("🎵 Background music: %s", cfg.Path)
	return player
}

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	log.Println("================================")
	log.Println("  NEON SNAKE - VIEWER")
	log.Println("================================")

	cfg := config.Load()
	log.Printf("Server: %s (retry every %v)", cfg.Client.ServerURL, cfg.Client.ReconnectDelay)

	// Window opens at half the stream resolution
	winW, winH := max(1, cfg.Video.Width/2), max(1, cfg.Video.Height/2)

	p := presenter.New(presenter.Options{
		Width:  winW,
		Height: winH,
		Visual: cfg.Visual,
		Fonts:  render.LoadFonts(float64(winW) / 720),
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	hud := &api.HUDBoard{}
	frames := api.NewLatestFrame(api.DefaultCaptureInterval)
	p.AddLabelSink(hud)
	p.AddFrameSink(frames)

	audioCtx := audio.NewContext(streaming.SampleRate)
	p.AddCueSink(newCuePlayer(audioCtx, cfg.Audio.Volume))
	var music *audio.Player
	if cfg.Audio.Enabled && cfg.Audio.Path != "" {
		music = startMusic(audioCtx, cfg.Audio)
	}

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
	})

	if err := subscriber.Start(); err != nil {
		log.Fatalf("Failed to start snapshot feed: %v", err)
	}

	ebiten.SetWindowTitle("Neon Snake")
	ebiten.SetWindowSize(winW, winH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Video.FPS)

	viewer := &Viewer{p: p, feed: subscriber}
	if err := ebiten.RunGame(viewer); err != nil {
		log.Printf("ERROR: %v", err)
	}

	log.Println("Shutting down...")

	// Nothing drains the queue once the window is gone, so release producers first
	p.Close()
	subscriber.Stop()

	if music != nil {
		music.Close()
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

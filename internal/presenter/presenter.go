// Package presenter is the client context: it owns every piece of mutable
// presentation state and runs all handlers on a single goroutine.
//
// Producers on other goroutines (the feed subscriber, the window system)
// only call Post. Everything else, including Frame, runs on the owning
// goroutine, so no locks guard the store pair, particles, shake or overlay.
package presenter

import (
	"context"
	"image"
	"log"
	"math/rand"
	"sync"
	"time"

	"neon-snake/internal/api"
	"neon-snake/internal/config"
	"neon-snake/internal/effects"
	"neon-snake/internal/game"
	"neon-snake/internal/overlay"
	"neon-snake/internal/render"
)

// DefaultQueueSize bounds the event queue.
const DefaultQueueSize = 256

// FrameSink receives every painted frame. The image is reused by the next
// frame, so sinks that keep it must copy.
type FrameSink interface {
	SubmitFrame(img *image.RGBA)
}

// CueSink receives audio cues derived from snapshot deltas.
type CueSink interface {
	PlayCue(effects.Cue)
}

// Options configures a Presenter.
type Options struct {
	Width     int
	Height    int
	Visual    config.VisualConfig
	Fonts     render.FontSet
	Rand      *rand.Rand // nil seeds from the clock
	QueueSize int
}

// Presenter owns the store, effects, overlay, viewport and painter.
type Presenter struct {
	events chan Event
	closed chan struct{}
	once   sync.Once

	visual    config.VisualConfig
	rng       *rand.Rand
	store     *game.Store
	detector  *effects.Detector
	particles *effects.Particles
	shake     effects.Shake
	overlay   *overlay.Machine
	painter   *render.Painter
	viewport  render.Viewport

	online      bool
	labels      render.Labels
	labelsSent  bool
	overlayShow bool

	labelSinks []render.LabelSink
	frameSinks []FrameSink
	cueSinks   []CueSink
}

// New creates a presenter with a blank canvas of opts.Width x opts.Height.
func New(opts Options) *Presenter {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	return &Presenter{
		events:    make(chan Event, size),
		closed:    make(chan struct{}),
		visual:    opts.Visual,
		rng:       rng,
		store:     game.NewStore(),
		detector:  effects.NewDetector(opts.Visual.ShakeFrames, opts.Visual.ShakeMagnitude, rng),
		particles: effects.NewParticles(rng),
		overlay:   overlay.New(),
		painter:   render.NewPainter(opts.Width, opts.Height, opts.Visual, opts.Fonts),
	}
}

// AddLabelSink registers a label consumer. Call before the loop starts.
func (p *Presenter) AddLabelSink(s render.LabelSink) {
	p.labelSinks = append(p.labelSinks, s)
}

// AddFrameSink registers a frame consumer. Call before the loop starts.
func (p *Presenter) AddFrameSink(s FrameSink) {
	p.frameSinks = append(p.frameSinks, s)
}

// AddCueSink registers an audio cue consumer. Call before the loop starts.
func (p *Presenter) AddCueSink(s CueSink) {
	p.cueSinks = append(p.cueSinks, s)
}

// Store exposes the snapshot store. Its accessors are safe from any goroutine.
func (p *Presenter) Store() *game.Store {
	return p.store
}

// Post enqueues ev. Safe from any goroutine. It blocks while the queue is
// full and returns false once the presenter is closed.
func (p *Presenter) Post(ev Event) bool {
	select {
	case <-p.closed:
		return false
	default:
	}
	select {
	case p.events <- ev:
		return true
	case <-p.closed:
		return false
	}
}

// Close releases producers blocked in Post. Queued events are dropped.
func (p *Presenter) Close() {
	p.once.Do(func() { close(p.closed) })
}

// Drain handles every queued event without blocking.
func (p *Presenter) Drain() int {
	n := 0
	for {
		select {
		case ev := <-p.events:
			p.handle(ev)
			n++
		default:
			return n
		}
	}
}

func (p *Presenter) handle(ev Event) {
	switch e := ev.(type) {
	case SnapshotEvent:
		p.handleSnapshot(e.Snapshot)
	case ConnectedEvent:
		p.online = true
	case DisconnectedEvent:
		p.online = false
	case ResizeEvent:
		p.Resize(e.Width, e.Height)
	}
}

// Resize changes the canvas size. Call only from the goroutine driving Frame;
// other goroutines Post a ResizeEvent.
func (p *Presenter) Resize(width, height int) {
	p.painter.Resize(width, height)
}

func (p *Presenter) handleSnapshot(s *game.Snapshot) {
	if s == nil {
		return
	}
	prev := p.store.Publish(s)
	api.UpdateGameGauges(s.Score, s.Hype)

	// Bursts convert cells through the viewport of the grid they belong to.
	p.ensureViewport(s.Grid)

	for _, tr := range p.detector.Detect(prev, s) {
		api.RecordTrigger(tr.Kind.String())
		switch tr.Kind {
		case effects.TriggerBurst:
			origin := effects.Point{X: float64(p.viewport.OriginX), Y: float64(p.viewport.OriginY)}
			p.particles.Spawn(tr.CellX, tr.CellY, float64(p.viewport.CellSize), origin, tr.Color, tr.Count, tr.Friction)
		case effects.TriggerShake:
			p.shake.Trigger(tr.Frames, tr.Magnitude)
		case effects.TriggerCue:
			for _, sink := range p.cueSinks {
				sink.PlayCue(tr.Cue)
			}
		}
	}
}

func (p *Presenter) ensureViewport(grid game.GridSize) {
	area := p.painter.BoardArea()
	if p.viewport.Stale(area, grid) {
		p.viewport = render.ComputeViewport(area, grid)
	}
}

// Frame drains pending events and paints one frame for wall-clock time now.
// It returns nil, and leaves the canvas untouched, until the first snapshot.
func (p *Presenter) Frame(now time.Time) *image.RGBA {
	p.Drain()

	cur := p.store.Current()
	p.publishLabels(render.LabelsFor(cur, p.online))
	if cur == nil {
		return nil
	}

	start := time.Now()
	p.ensureViewport(cur.Grid)

	ovl := p.overlay.Update(cur, now)
	if ovl.Visible != p.overlayShow {
		p.overlayShow = ovl.Visible
		api.SetOverlayVisible(ovl.Visible)
	}

	dx, dy := p.shake.Offset(p.rng)

	p.painter.Paint(render.Frame{
		Snapshot:  cur,
		Viewport:  p.viewport,
		Now:       now,
		ShakeX:    dx,
		ShakeY:    dy,
		Rainbow:   effects.RainbowMode(cur, p.visual.HypeThreshold),
		Particles: p.particles,
		Overlay:   ovl,
		Labels:    p.labels,
	})

	canvas := p.painter.Canvas()
	for _, sink := range p.frameSinks {
		sink.SubmitFrame(canvas)
	}

	api.UpdateParticleCount(p.particles.Len())
	api.RecordFrame(time.Since(start))
	return canvas
}

// publishLabels forwards labels to the sinks when they changed.
func (p *Presenter) publishLabels(l render.Labels) {
	if p.labelsSent && l == p.labels {
		return
	}
	p.labels = l
	p.labelsSent = true
	for _, sink := range p.labelSinks {
		sink.SetLabels(l)
	}
}

// Run is the headless frame clock: one Frame per tick at fps until ctx ends.
func (p *Presenter) Run(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	log.Printf("🎬 Render loop started at %d FPS", fps)
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Render loop stopped")
			return
		case now := <-ticker.C:
			p.Frame(now)
		}
	}
}

// Online reports the last known connection state.
func (p *Presenter) Online() bool {
	return p.online
}

// Particles returns the live particle count.
func (p *Presenter) Particles() int {
	return p.particles.Len()
}

// Viewport returns the current viewport.
func (p *Presenter) Viewport() render.Viewport {
	return p.viewport
}

// Overlay returns the overlay state as of the last frame.
func (p *Presenter) Overlay() overlay.State {
	return p.overlay.State()
}

// ShakeRemaining returns the pending shake frames.
func (p *Presenter) ShakeRemaining() int {
	return p.shake.Remaining
}

package api

import (
	"bytes"
	"image"
	"image/png"
	"sync"
	"time"

	"neon-snake/internal/render"
)

// DefaultCaptureInterval bounds how often LatestFrame copies the canvas.
const DefaultCaptureInterval = 500 * time.Millisecond

// LatestFrame keeps a throttled copy of the rendered canvas for /frame.png.
// SubmitFrame runs on the render goroutine; PNG on HTTP goroutines.
type LatestFrame struct {
	mu       sync.Mutex
	img      *image.RGBA
	captured time.Time
	interval time.Duration
	encoder  png.Encoder
}

// NewLatestFrame creates a capture that copies at most once per interval.
func NewLatestFrame(interval time.Duration) *LatestFrame {
	return &LatestFrame{
		interval: interval,
		encoder:  png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// SubmitFrame copies img unless the last copy is younger than the interval.
func (f *LatestFrame) SubmitFrame(img *image.RGBA) {
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.img != nil && now.Sub(f.captured) < f.interval {
		return
	}
	if f.img == nil || f.img.Bounds() != img.Bounds() {
		f.img = image.NewRGBA(img.Bounds())
	}
	copy(f.img.Pix, img.Pix)
	f.captured = now
}

// PNG encodes the last captured frame.
func (f *LatestFrame) PNG() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.img == nil {
		return nil, false
	}
	var buf bytes.Buffer
	if err := f.encoder.Encode(&buf, f.img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// HUDBoard holds the labels last published by the render loop.
type HUDBoard struct {
	mu     sync.RWMutex
	labels render.Labels
}

// SetLabels implements render.LabelSink
func (b *HUDBoard) SetLabels(l render.Labels) {
	b.mu.Lock()
	b.labels = l
	b.mu.Unlock()
}

// Labels returns the current labels
func (b *HUDBoard) Labels() render.Labels {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.labels
}

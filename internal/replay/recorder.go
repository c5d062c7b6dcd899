// Package replay records the raw snapshot feed to JSONL and plays it back
// over a websocket endpoint that speaks the game server's protocol.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"neon-snake/internal/api"
)

const (
	RecordBufferSize   = 1024                   // Lines queued for the writer
	MaxLinesPerSec     = 240                    // Rate limit, well above any sane server tick
	BatchFlushSize     = 64                     // Lines per flush
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
)

// RecorderStats is a point-in-time copy of the recorder counters.
type RecorderStats struct {
	Written uint64
	Dropped uint64
}

// Recorder appends every raw feed message to a JSONL file, one per line.
// Record never blocks: when the writer falls behind, lines are dropped.
type Recorder struct {
	lines   chan []byte
	limiter *rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file *os.File

	writtenCount uint64 // atomic
	droppedCount uint64 // atomic
}

// NewRecorder creates a stopped recorder
func NewRecorder() *Recorder {
	return &Recorder{
		lines:    make(chan []byte, RecordBufferSize),
		limiter:  rate.NewLimiter(MaxLinesPerSec, MaxLinesPerSec/4),
		stopChan: make(chan struct{}),
	}
}

// Start opens path for append and begins the writer goroutine
func (r *Recorder) Start(path string) error {
	if r.running.Load() {
		return nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = file

	r.running.Store(true)
	r.writerWg.Add(1)
	go r.writerLoop()

	log.Printf("📼 Recording feed to %s", path)
	return nil
}

// Stop flushes queued lines and closes the file
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		if !r.running.Load() {
			return
		}
		r.running.Store(false)
		close(r.stopChan)
		r.writerWg.Wait()

		if r.file != nil {
			r.file.Close()
		}

		stats := r.Stats()
		log.Printf("📼 Recorder stopped: %d lines written, %d dropped", stats.Written, stats.Dropped)
	})
}

// Record queues one raw message. Returns false if it was dropped.
func (r *Recorder) Record(raw []byte) bool {
	if !r.running.Load() {
		return false
	}

	if !r.limiter.Allow() {
		r.drop()
		return false
	}

	select {
	case r.lines <- toLine(raw):
		return true
	default:
		r.drop()
		return false
	}
}

// Stats returns recorder statistics
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Written: atomic.LoadUint64(&r.writtenCount),
		Dropped: atomic.LoadUint64(&r.droppedCount),
	}
}

func (r *Recorder) drop() {
	atomic.AddUint64(&r.droppedCount, 1)
	api.RecordRecorderDrop()
}

// toLine copies raw into a single line. Valid JSON is compacted; anything
// else keeps its bytes with line breaks flattened so playback stays aligned.
func toLine(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.Bytes()
	}
	line := bytes.ReplaceAll(raw, []byte("\r"), []byte(" "))
	return bytes.ReplaceAll(line, []byte("\n"), []byte(" "))
}

// writerLoop batches lines to disk
func (r *Recorder) writerLoop() {
	defer r.writerWg.Done()

	w := bufio.NewWriter(r.file)
	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	pending := 0
	write := func(line []byte) {
		w.Write(line)
		w.WriteByte('\n')
		atomic.AddUint64(&r.writtenCount, 1)
		api.RecordRecorderLine()
		pending++
		if pending >= BatchFlushSize {
			r.flush(w)
			pending = 0
		}
	}

	for {
		select {
		case <-r.stopChan:
			// Drain whatever is already queued
			for {
				select {
				case line := <-r.lines:
					write(line)
				default:
					r.flush(w)
					return
				}
			}
		case line := <-r.lines:
			write(line)
		case <-ticker.C:
			if pending > 0 {
				r.flush(w)
				pending = 0
			}
		}
	}
}

func (r *Recorder) flush(w *bufio.Writer) {
	if err := w.Flush(); err != nil {
		log.Printf("⚠️ Recorder flush failed: %v", err)
	}
}

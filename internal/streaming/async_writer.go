package streaming

import (
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// MaxConsecutiveErrors before the connection is declared lost
	MaxConsecutiveErrors = 10
	// ErrorResetInterval - reset error count if no errors for this duration
	ErrorResetInterval = 5 * time.Second
	// BackpressureWarningThreshold - warn if write time exceeds this multiple of frame interval
	BackpressureWarningThreshold = 2.0
	// SevereBackpressureThreshold - severe warning if write time exceeds this multiple
	SevereBackpressureThreshold = 5.0
	// BackpressureLogInterval - minimum time between backpressure warnings
	BackpressureLogInterval = 5 * time.Second
)

// AsyncFrameWriter pulls frames from a ring buffer and writes them to
// FFmpeg's stdin at a steady rate, isolating the render loop from pipe stalls.
type AsyncFrameWriter struct {
	ringBuffer *FrameRingBuffer
	pipe       io.Writer
	scratch    []byte
	stopChan   chan struct{}
	wg         sync.WaitGroup
	running    int32 // atomic

	// Stats
	framesWritten  uint64 // atomic
	writeErrors    uint64 // atomic
	avgWriteTimeNs int64  // atomic
	maxWriteTimeNs int64  // atomic

	backpressureEvents int64 // atomic
	severeBackpressure int64 // atomic
	backpressureLog    *rate.Limiter
	bitrate            int

	// Connection health
	consecutiveErrors int32 // atomic
	connectionLost    int32 // atomic
	lastErrorTime     time.Time
	onConnectionLost  func()
	mu                sync.Mutex // protects onConnectionLost and lastErrorTime
}

// NewAsyncFrameWriter creates a writer draining ringBuffer into pipe.
func NewAsyncFrameWriter(ringBuffer *FrameRingBuffer, pipe io.Writer, bitrate int) *AsyncFrameWriter {
	return &AsyncFrameWriter{
		ringBuffer:      ringBuffer,
		pipe:            pipe,
		scratch:         make([]byte, ringBuffer.FrameSize()),
		stopChan:        make(chan struct{}),
		backpressureLog: rate.NewLimiter(rate.Every(BackpressureLogInterval), 1),
		bitrate:         bitrate,
	}
}

// SetOnConnectionLost sets a callback invoked once, on its own goroutine,
// after MaxConsecutiveErrors consecutive write failures.
func (w *AsyncFrameWriter) SetOnConnectionLost(callback func()) {
	w.mu.Lock()
	w.onConnectionLost = callback
	w.mu.Unlock()
}

// IsConnectionLost returns true once the connection has been declared lost.
func (w *AsyncFrameWriter) IsConnectionLost() bool {
	return atomic.LoadInt32(&w.connectionLost) == 1
}

// Start begins writing one frame per tick at fps.
func (w *AsyncFrameWriter) Start(fps int) {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return
	}
	if fps <= 0 {
		fps = 30
	}

	atomic.StoreInt32(&w.connectionLost, 0)
	atomic.StoreInt32(&w.consecutiveErrors, 0)

	w.stopChan = make(chan struct{})
	w.wg.Add(1)
	go w.loop(time.Second / time.Duration(fps))

	log.Printf("📡 AsyncFrameWriter started at %d FPS", fps)
}

func (w *AsyncFrameWriter) loop(frameInterval time.Duration) {
	defer w.wg.Done()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	consecutiveEmpty := 0

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if atomic.LoadInt32(&w.connectionLost) == 1 {
				continue
			}

			if !w.ringBuffer.ReadInto(w.scratch) {
				consecutiveEmpty++
				if consecutiveEmpty == 30 {
					log.Println("⚠️ AsyncFrameWriter: buffer starving - render loop may be too slow")
				}
				continue
			}
			consecutiveEmpty = 0

			start := time.Now()
			_, err := w.pipe.Write(w.scratch)
			writeTime := time.Since(start)

			if err != nil {
				w.recordError(err)
				continue
			}
			w.recordWrite(writeTime, frameInterval)
		}
	}
}

func (w *AsyncFrameWriter) recordError(err error) {
	atomic.AddUint64(&w.writeErrors, 1)
	errCount := atomic.AddInt32(&w.consecutiveErrors, 1)

	if errCount <= 5 {
		log.Printf("❌ AsyncFrameWriter write error (%d/%d): %v", errCount, MaxConsecutiveErrors, err)
	}

	w.mu.Lock()
	w.lastErrorTime = time.Now()
	callback := w.onConnectionLost
	w.mu.Unlock()

	if errCount >= MaxConsecutiveErrors && atomic.CompareAndSwapInt32(&w.connectionLost, 0, 1) {
		log.Printf("🔴 Connection lost detected after %d consecutive errors", errCount)
		if callback != nil {
			go callback()
		}
	}
}

func (w *AsyncFrameWriter) recordWrite(writeTime, frameInterval time.Duration) {
	if atomic.LoadInt32(&w.consecutiveErrors) > 0 {
		w.mu.Lock()
		lastErr := w.lastErrorTime
		w.mu.Unlock()

		if time.Since(lastErr) > ErrorResetInterval {
			atomic.StoreInt32(&w.consecutiveErrors, 0)
			log.Println("✅ Connection recovered - error counter reset")
		}
	}

	atomic.AddUint64(&w.framesWritten, 1)

	// Exponential moving average
	avgNs := atomic.LoadInt64(&w.avgWriteTimeNs)
	atomic.StoreInt64(&w.avgWriteTimeNs, (avgNs*9+writeTime.Nanoseconds())/10)
	if writeTime.Nanoseconds() > atomic.LoadInt64(&w.maxWriteTimeNs) {
		atomic.StoreInt64(&w.maxWriteTimeNs, writeTime.Nanoseconds())
	}

	ratio := float64(writeTime) / float64(frameInterval)
	switch {
	case ratio >= SevereBackpressureThreshold:
		atomic.AddInt64(&w.severeBackpressure, 1)
		atomic.AddInt64(&w.backpressureEvents, 1)
		if w.backpressureLog.Allow() {
			log.Printf("🔴 SEVERE BACKPRESSURE: FFmpeg write took %.0fms (target: %.1fms)",
				writeTime.Seconds()*1000, frameInterval.Seconds()*1000)
			if w.bitrate > 0 {
				log.Printf("   💡 Try reducing STREAM_BITRATE from %dk to %dk", w.bitrate, max(2000, w.bitrate*2/3))
			}
		}
	case ratio >= BackpressureWarningThreshold:
		atomic.AddInt64(&w.backpressureEvents, 1)
		if w.backpressureLog.Allow() {
			log.Printf("⚠️ Backpressure detected: FFmpeg write took %.0fms (target: %.1fms)",
				writeTime.Seconds()*1000, frameInterval.Seconds()*1000)
		}
	}
}

// Stop stops the writer and waits for it to finish.
func (w *AsyncFrameWriter) Stop() {
	if !atomic.CompareAndSwapInt32(&w.running, 1, 0) {
		return
	}

	close(w.stopChan)
	w.wg.Wait()
	log.Println("📡 AsyncFrameWriter stopped")
}

// IsRunning returns whether the writer is currently running.
func (w *AsyncFrameWriter) IsRunning() bool {
	return atomic.LoadInt32(&w.running) == 1
}

// FramesWritten returns the number of frames delivered to the pipe.
func (w *AsyncFrameWriter) FramesWritten() uint64 {
	return atomic.LoadUint64(&w.framesWritten)
}

// GetStats returns writer statistics.
func (w *AsyncFrameWriter) GetStats() map[string]interface{} {
	bufWritten, bufDropped, bufRead := w.ringBuffer.GetStats()

	return map[string]interface{}{
		"framesWritten":      atomic.LoadUint64(&w.framesWritten),
		"writeErrors":        atomic.LoadUint64(&w.writeErrors),
		"consecutiveErrors":  atomic.LoadInt32(&w.consecutiveErrors),
		"connectionLost":     atomic.LoadInt32(&w.connectionLost) == 1,
		"avgWriteTimeMs":     float64(atomic.LoadInt64(&w.avgWriteTimeNs)) / 1e6,
		"maxWriteTimeMs":     float64(atomic.LoadInt64(&w.maxWriteTimeNs)) / 1e6,
		"backpressureEvents": atomic.LoadInt64(&w.backpressureEvents),
		"severeBackpressure": atomic.LoadInt64(&w.severeBackpressure),
		"bufferAvailable":    w.ringBuffer.Available(),
		"bufferWritten":      bufWritten,
		"bufferDropped":      bufDropped,
		"bufferRead":         bufRead,
	}
}

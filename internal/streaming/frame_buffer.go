package streaming

import (
	"sync/atomic"
)

// BufferSize is the number of frame slots in the ring buffer.
// At 30fps: 16 frames = ~533ms of slack for FFmpeg upload spikes.
const BufferSize = 16

// FrameRingBuffer decouples the render goroutine from FFmpeg writes.
// One producer (SubmitFrame) and one consumer (AsyncFrameWriter) only.
// When full, new frames are dropped rather than blocking the render loop.
type FrameRingBuffer struct {
	frames    [BufferSize][]byte
	readIdx   uint32 // atomic - consumer index
	writeIdx  uint32 // atomic - producer index
	frameSize int

	// Stats
	framesWritten uint64
	framesDropped uint64
	framesRead    uint64
}

// NewFrameRingBuffer creates a ring buffer with pre-allocated frames.
func NewFrameRingBuffer(frameSize int) *FrameRingBuffer {
	rb := &FrameRingBuffer{
		frameSize: frameSize,
	}

	for i := 0; i < BufferSize; i++ {
		rb.frames[i] = make([]byte, frameSize)
	}

	return rb
}

// FrameSize returns the byte length every frame must have.
func (rb *FrameRingBuffer) FrameSize() int {
	return rb.frameSize
}

// TryWrite copies frame into the next free slot.
// Returns false if the buffer is full or the frame has the wrong size.
func (rb *FrameRingBuffer) TryWrite(frame []byte) bool {
	if len(frame) != rb.frameSize {
		atomic.AddUint64(&rb.framesDropped, 1)
		return false
	}

	currentWrite := atomic.LoadUint32(&rb.writeIdx)
	nextWrite := (currentWrite + 1) % BufferSize

	if nextWrite == atomic.LoadUint32(&rb.readIdx) {
		atomic.AddUint64(&rb.framesDropped, 1)
		return false
	}

	copy(rb.frames[currentWrite], frame)

	atomic.StoreUint32(&rb.writeIdx, nextWrite)
	atomic.AddUint64(&rb.framesWritten, 1)

	return true
}

// ReadInto copies the oldest frame into dst and frees its slot.
// The slot is released only after the copy, so the producer never
// overwrites a frame that is still being read. Returns false when empty.
func (rb *FrameRingBuffer) ReadInto(dst []byte) bool {
	readIdx := atomic.LoadUint32(&rb.readIdx)
	if readIdx == atomic.LoadUint32(&rb.writeIdx) {
		return false
	}

	copy(dst, rb.frames[readIdx])

	atomic.StoreUint32(&rb.readIdx, (readIdx+1)%BufferSize)
	atomic.AddUint64(&rb.framesRead, 1)
	return true
}

// Available returns the number of frames waiting to be read.
func (rb *FrameRingBuffer) Available() int {
	readIdx := atomic.LoadUint32(&rb.readIdx)
	writeIdx := atomic.LoadUint32(&rb.writeIdx)

	if writeIdx >= readIdx {
		return int(writeIdx - readIdx)
	}
	return int(BufferSize - readIdx + writeIdx)
}

// GetStats returns buffer statistics.
func (rb *FrameRingBuffer) GetStats() (written, dropped, read uint64) {
	return atomic.LoadUint64(&rb.framesWritten),
		atomic.LoadUint64(&rb.framesDropped),
		atomic.LoadUint64(&rb.framesRead)
}

// Reset empties the buffer. Only safe while neither side is running.
func (rb *FrameRingBuffer) Reset() {
	atomic.StoreUint32(&rb.readIdx, 0)
	atomic.StoreUint32(&rb.writeIdx, 0)
	atomic.StoreUint64(&rb.framesWritten, 0)
	atomic.StoreUint64(&rb.framesDropped, 0)
	atomic.StoreUint64(&rb.framesRead, 0)
}

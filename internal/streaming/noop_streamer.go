package streaming

import "errors"

// ErrStreamingDisabled is returned by NoOpStreamer.Start.
var ErrStreamingDisabled = errors.New("streaming disabled")

// NoOpStreamer stands in for StreamManager when no RTMP target is
// configured, so the debug API can still answer stream requests.
type NoOpStreamer struct {
	reason string
}

// NewNoOpStreamer creates a NoOpStreamer that reports reason.
func NewNoOpStreamer(reason string) *NoOpStreamer {
	return &NoOpStreamer{reason: reason}
}

// Start always fails.
func (n *NoOpStreamer) Start() error {
	return ErrStreamingDisabled
}

// Stop does nothing.
func (n *NoOpStreamer) Stop() {}

// IsStreaming always returns false.
func (n *NoOpStreamer) IsStreaming() bool {
	return false
}

// GetStats reports why streaming is off.
func (n *NoOpStreamer) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"isStreaming": false,
		"mode":        "disabled",
		"message":     n.reason,
	}
}

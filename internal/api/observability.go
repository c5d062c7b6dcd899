package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (label values come from fixed sets only)
var (
	// Render loop metrics
	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snake_frame_duration_seconds",
		Help:    "Time spent painting a frame",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.016, 0.033, 0.05},
	})

	framesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_frames_rendered_total",
		Help: "Frames painted since start",
	})

	particleCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_particle_count",
		Help: "Current number of live particles",
	})

	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_effect_triggers_total",
		Help: "Effect triggers derived from snapshot deltas",
	}, []string{"kind"}) // Bounded: "burst", "shake", "cue"

	overlayVisible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_overlay_visible",
		Help: "1 while the terminal overlay is showing",
	})

	// Game gauges mirrored from the latest snapshot
	scoreGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_score",
		Help: "Score in the latest snapshot",
	})

	hypeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_hype",
		Help: "Hype in the latest snapshot (0-100)",
	})

	// Feed metrics
	snapshotsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_snapshots_received_total",
		Help: "Valid snapshots received from the game server",
	})

	snapshotsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_snapshots_discarded_total",
		Help: "Inbound messages discarded as malformed or invalid",
	}, []string{"reason"}) // Bounded: see game.DiscardReason

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_reconnect_attempts_total",
		Help: "Connection attempts after a lost or failed connection",
	})

	connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_feed_connected",
		Help: "1 while the snapshot feed is connected",
	})

	// Replay recorder metrics
	recorderLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_recorder_lines_total",
		Help: "Snapshot lines written by the replay recorder",
	})

	recorderDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_recorder_dropped_total",
		Help: "Snapshot lines dropped due to rate limiting or buffer full",
	})

	// Stream output metrics
	streamFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_frames_dropped_total",
		Help: "Frames dropped because the encoder fell behind",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or client limit",
	}, []string{"reason"}) // Bounded: "rate_limit", "ws_limit"

	// WebSocket metrics (replay server)
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// RecordFrame records paint timing for metrics
func RecordFrame(duration time.Duration) {
	frameDuration.Observe(duration.Seconds())
	framesRendered.Inc()
}

// UpdateParticleCount updates the particle gauge
func UpdateParticleCount(count int) {
	particleCount.Set(float64(count))
}

// RecordTrigger counts one effect trigger by kind
func RecordTrigger(kind string) {
	triggersTotal.WithLabelValues(kind).Inc()
}

// SetOverlayVisible mirrors the overlay state
func SetOverlayVisible(visible bool) {
	overlayVisible.Set(boolGauge(visible))
}

// UpdateGameGauges mirrors score and hype from the latest snapshot
func UpdateGameGauges(score int, hype float64) {
	scoreGauge.Set(float64(score))
	hypeGauge.Set(hype)
}

// RecordSnapshotReceived counts one valid inbound snapshot
func RecordSnapshotReceived() {
	snapshotsReceived.Inc()
}

// RecordSnapshotDiscarded counts one discarded message
// reason must come from game.DiscardReason
func RecordSnapshotDiscarded(reason string) {
	snapshotsDiscarded.WithLabelValues(reason).Inc()
}

// RecordReconnect counts one reconnect attempt
func RecordReconnect() {
	reconnectsTotal.Inc()
}

// SetConnected mirrors the feed connection state
func SetConnected(connected bool) {
	connectedGauge.Set(boolGauge(connected))
}

// RecordRecorderLine counts one recorded snapshot line
func RecordRecorderLine() {
	recorderLines.Inc()
}

// RecordRecorderDrop counts one dropped snapshot line
func RecordRecorderDrop() {
	recorderDropped.Inc()
}

// RecordStreamFrameDropped counts one frame the encoder could not take
func RecordStreamFrameDropped() {
	streamFramesDropped.Inc()
}

// RecordConnectionRejected increments the rejection counter
// reason must be one of: "rate_limit", "ws_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

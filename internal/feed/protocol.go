// Package feed receives snapshots from the game server over a websocket.
//
// The server pushes one JSON snapshot per text message on /ws. The client never
// writes application messages; it only answers the transport's ping/pong.
package feed

import (
	"time"

	"neon-snake/internal/config"
)

const (
	// DefaultURL is the game server's snapshot endpoint.
	DefaultURL = "ws://localhost:8000/ws"

	// ReconnectDelay is the fixed pause before every new connection attempt.
	ReconnectDelay = config.ReconnectDelay

	// Connection settings
	MaxMessageSize   = 1024 * 1024 // 1MB max message
	HandshakeTimeout = 5 * time.Second
	PongWait         = 60 * time.Second
	PingPeriod       = 25 * time.Second // must be less than PongWait
	WriteTimeout     = 5 * time.Second

	// Malformed message logging is throttled to this many lines per second.
	discardLogRate  = 1
	discardLogBurst = 5
)

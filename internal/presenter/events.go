package presenter

import "neon-snake/internal/game"

// Event is anything the presenter goroutine handles between frames.
type Event interface {
	event()
}

// SnapshotEvent carries one decoded, validated snapshot.
type SnapshotEvent struct {
	Snapshot *game.Snapshot
}

// ConnectedEvent reports the feed connection opened.
type ConnectedEvent struct{}

// DisconnectedEvent reports the feed connection closed or failed.
type DisconnectedEvent struct {
	Err error
}

// ResizeEvent reports a new drawing surface size in pixels.
type ResizeEvent struct {
	Width, Height int
}

func (SnapshotEvent) event()     {}
func (ConnectedEvent) event()    {}
func (DisconnectedEvent) event() {}
func (ResizeEvent) event()       {}

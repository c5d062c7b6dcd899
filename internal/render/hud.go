package render

import (
	"fmt"
	"math"

	"neon-snake/internal/game"
)

// Labels is the text shown around the board. Values are recomputed from the
// latest snapshot, so writing the same Labels twice is harmless.
type Labels struct {
	Score      string `json:"score"`
	Status     string `json:"status"`
	Hype       string `json:"hype"`
	Connection string `json:"connection"`
	Online     bool   `json:"online"`
}

// LabelSink receives label updates.
type LabelSink interface {
	SetLabels(Labels)
}

// Connection labels.
const (
	LabelOnline       = "ONLINE"
	LabelDisconnected = "DISCONNECTED"
)

// LabelsFor builds the labels for snap (nil before the first snapshot).
func LabelsFor(snap *game.Snapshot, online bool) Labels {
	l := Labels{
		Score:      "SCORE: 0",
		Status:     "SYSTEM: --",
		Hype:       "HYPE: 0%",
		Connection: LabelDisconnected,
		Online:     online,
	}
	if online {
		l.Connection = LabelOnline
	}
	if snap == nil {
		return l
	}

	l.Score = fmt.Sprintf("SCORE: %d", snap.Score)
	if snap.AIStatus != "" {
		l.Status = "SYSTEM: " + snap.AIStatus
	}
	l.Hype = fmt.Sprintf("HYPE: %d%%", int(math.Round(snap.Hype)))
	return l
}

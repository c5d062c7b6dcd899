package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecorderWritesOneLinePerMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.jsonl")

	rec := NewRecorder()
	if err := rec.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	msgs := []string{
		`{"score": 1, "snake": [[1, 2]]}`,
		"{\n  \"score\": 2,\n  \"snake\": [[2, 2]]\n}",
		"not json\nat all",
	}
	for _, m := range msgs {
		if !rec.Record([]byte(m)) {
			t.Fatalf("Record(%q) dropped", m)
		}
	}
	rec.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{
		`{"score":1,"snake":[[1,2]]}`,
		`{"score":2,"snake":[[2,2]]}`,
		"not json at all",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if stats := rec.Stats(); stats.Written != 3 || stats.Dropped != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestRecorderRejectsWhenStopped(t *testing.T) {
	rec := NewRecorder()
	if rec.Record([]byte(`{}`)) {
		t.Error("Record should fail before Start")
	}

	if err := rec.Start(filepath.Join(t.TempDir(), "feed.jsonl")); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rec.Stop()
	rec.Stop() // idempotent

	if rec.Record([]byte(`{}`)) {
		t.Error("Record should fail after Stop")
	}
}

func TestRecorderStartBadPath(t *testing.T) {
	rec := NewRecorder()
	if err := rec.Start(filepath.Join(t.TempDir(), "missing", "feed.jsonl")); err == nil {
		t.Error("Expected error for a path in a missing directory")
	}
}

func TestRecorderRoundTripsThroughLoadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.jsonl")

	rec := NewRecorder()
	if err := rec.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		rec.Record([]byte(`{"score": 0, "snake": [[0, 0]], "grid_size": [4, 4]}`))
	}
	rec.Stop()

	frames, err := LoadFrames(path)
	if err != nil {
		t.Fatalf("LoadFrames failed: %v", err)
	}
	if len(frames) != 10 {
		t.Errorf("Expected 10 frames, got %d", len(frames))
	}
}

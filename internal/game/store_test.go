package game

import (
	"sync"
	"testing"
)

func snap(score int) *Snapshot {
	return &Snapshot{Score: score, Snake: []Cell{{X: 0, Y: 0}}, Grid: GridSize{W: 10, H: 10}}
}

// TestStorePublish verifies the previous/current shift
func TestStorePublish(t *testing.T) {
	s := NewStore()
	if s.Current() != nil || s.Previous() != nil {
		t.Fatal("New store should be empty")
	}

	a, b, c := snap(1), snap(2), snap(3)

	if prev := s.Publish(a); prev != nil {
		t.Errorf("First publish should return nil previous, got %v", prev)
	}
	if s.Current() != a || s.Previous() != nil {
		t.Error("Expected (nil, a)")
	}

	s.Publish(b)
	if prev, cur := s.Pair(); prev != a || cur != b {
		t.Error("Expected (a, b)")
	}

	if prev := s.Publish(c); prev != b {
		t.Error("Publish should return the replaced current")
	}
	if prev, cur := s.Pair(); prev != b || cur != c {
		t.Error("Expected (b, c)")
	}
	if s.Published() != 3 {
		t.Errorf("Expected 3 published, got %d", s.Published())
	}
}

// TestStoreDuplicatePublish verifies duplicates are stored unconditionally
func TestStoreDuplicatePublish(t *testing.T) {
	s := NewStore()
	a := snap(1)
	s.Publish(a)
	s.Publish(a)

	if prev, cur := s.Pair(); prev != a || cur != a {
		t.Error("Expected (a, a) after duplicate publish")
	}
}

// TestStoreConcurrentReaders verifies readers always see a consistent pair
func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				prev, cur := s.Pair()
				if prev != nil && cur != nil && cur.Score != prev.Score+1 {
					t.Errorf("Inconsistent pair: %d then %d", prev.Score, cur.Score)
					return
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		s.Publish(snap(i))
	}
	close(done)
	wg.Wait()
}

package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler collects scheduled calls and runs them only when the test
// advances its virtual time.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending []*manualTimer
}

type manualTimer struct {
	id      int
	at      time.Duration
	f       func()
	stopped bool
}

// NewManualScheduler creates a scheduler at virtual time 0.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules f at now+d. The returned function cancels it.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := &manualTimer{id: s.nextID, at: s.now + d, f: f}
	s.pending = append(s.pending, t)

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped {
			return false
		}
		for i, p := range s.pending {
			if p == t {
				t.stopped = true
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves virtual time forward by d and runs every call that became
// due, in due order. Calls run on the caller's goroutine without the lock
// held. Returns how many ran.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	kept := s.pending[:0]
	for _, t := range s.pending {
		if t.at <= s.now {
			t.stopped = true
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	s.pending = kept
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].id < due[j].id
	})
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// Pending returns how many calls are scheduled and not yet run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

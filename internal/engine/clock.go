package engine

import "sync/atomic"

// SeqClock hands out logical sequence numbers.
// Implemented by Clock and by testutil.DeterministicClock.
type SeqClock interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic logical clock. Every applied command is stamped
// with a strictly increasing seq; wall-clock time is never used for
// ordering, so replay reproduces the same order.
//
// Clock is safe for concurrent use, though only the Run goroutine normally
// calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

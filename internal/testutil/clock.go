package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall-clock origin used by deterministic tests.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a resettable run sequencer for tests.
//
// It satisfies runner.Sequencer. The first call to Next returns 1, and
// Reset lets one test replay a scenario with identical seq values.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset resets the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// StepTime is a fake wall clock. Each call to Now returns the previous
// instant plus Step, starting at Epoch, so measured durations are exactly
// Step.
type StepTime struct {
	mu   sync.Mutex
	next time.Time
	Step time.Duration
}

// NewStepTime creates a fake wall clock starting at Epoch.
func NewStepTime(step time.Duration) *StepTime {
	return &StepTime{next: Epoch, Step: step}
}

// Now returns the current fake instant and advances by Step.
func (s *StepTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next = s.next.Add(s.Step)
	return t
}

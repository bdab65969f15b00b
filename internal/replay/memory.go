// Package replay holds the bounded experience buffer sampled by the agent.
package replay

import (
	"errors"
	"math/rand"
)

// ErrInsufficientData is returned by Sample when fewer than n transitions are stored.
var ErrInsufficientData = errors.New("replay: not enough transitions")

// Transition is a single (s, a, r, s', done) experience tuple.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64
	Done      bool
}

// Memory is a fixed-capacity FIFO ring buffer of transitions.
type Memory struct {
	buf      []Transition
	capacity int
	next     int // slot overwritten by the next Append once full

	// perm is a permutation of [0, len(buf)) that Sample shuffles in place.
	perm []int
	rng  *rand.Rand
}

// New creates a memory that holds at most capacity transitions.
func New(capacity int, rng *rand.Rand) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Memory{
		buf:      make([]Transition, 0, min(capacity, 1<<16)),
		capacity: capacity,
		rng:      rng,
	}
}

// Len returns the number of stored transitions.
func (m *Memory) Len() int { return len(m.buf) }

// Cap returns the configured maximum.
func (m *Memory) Cap() int { return m.capacity }

// Append stores a copy of t, evicting the oldest entry once full.
func (m *Memory) Append(t Transition) {
	t.State = append([]float64(nil), t.State...)
	t.NextState = append([]float64(nil), t.NextState...)

	if len(m.buf) < m.capacity {
		m.perm = append(m.perm, len(m.buf))
		m.buf = append(m.buf, t)
		return
	}
	m.buf[m.next] = t
	m.next = (m.next + 1) % m.capacity
}

// Sample returns n distinct transitions chosen uniformly at random.
// Calls are independent; the batch has no particular order.
func (m *Memory) Sample(n int) ([]Transition, error) {
	size := len(m.buf)
	if n > size {
		return nil, ErrInsufficientData
	}

	// Partial Fisher-Yates. perm stays a permutation of [0, size) across
	// calls, so each call is an unbiased draw without replacement.
	batch := make([]Transition, n)
	for i := 0; i < n; i++ {
		j := i + m.rng.Intn(size-i)
		m.perm[i], m.perm[j] = m.perm[j], m.perm[i]
		batch[i] = m.buf[m.perm[i]]
	}
	return batch, nil
}

// Transitions returns the stored transitions from oldest to newest.
func (m *Memory) Transitions() []Transition {
	out := make([]Transition, 0, len(m.buf))
	out = append(out, m.buf[m.next:]...)
	out = append(out, m.buf[:m.next]...)
	return out
}

package replay

import (
	"errors"
	"math/rand"
	"testing"
)

func tr(id int) Transition {
	return Transition{
		State:     []float64{float64(id)},
		Action:    id % 3,
		Reward:    float64(id),
		NextState: []float64{float64(id + 1)},
	}
}

func TestMemory_FIFOEviction(t *testing.T) {
	const capacity, extra = 5, 3
	m := New(capacity, rand.New(rand.NewSource(1)))
	for i := 0; i < capacity+extra; i++ {
		m.Append(tr(i))
	}
	if m.Len() != capacity {
		t.Fatalf("len=%d want=%d", m.Len(), capacity)
	}
	got := m.Transitions()
	for i, tt := range got {
		want := float64(i + extra)
		if tt.Reward != want {
			t.Fatalf("slot %d reward=%v want=%v (oldest %d must be evicted)", i, tt.Reward, want, extra)
		}
	}
}

func TestMemory_SampleInsufficient(t *testing.T) {
	m := New(10, nil)
	m.Append(tr(0))
	if _, err := m.Sample(2); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err=%v want ErrInsufficientData", err)
	}
	if _, err := m.Sample(1); err != nil {
		t.Fatalf("Sample(1): %v", err)
	}
}

func TestMemory_SampleWithoutReplacement(t *testing.T) {
	m := New(64, rand.New(rand.NewSource(3)))
	for i := 0; i < 40; i++ {
		m.Append(tr(i))
	}
	for round := 0; round < 50; round++ {
		batch, err := m.Sample(40)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		seen := make(map[float64]bool, len(batch))
		for _, b := range batch {
			if seen[b.Reward] {
				t.Fatalf("round %d: transition %v sampled twice", round, b.Reward)
			}
			seen[b.Reward] = true
		}
		if len(seen) != 40 {
			t.Fatalf("round %d: %d distinct, want 40", round, len(seen))
		}
	}
}

func TestMemory_SampleRoughlyUniform(t *testing.T) {
	m := New(10, rand.New(rand.NewSource(7)))
	for i := 0; i < 25; i++ { // wraps the ring twice
		m.Append(tr(i))
	}
	counts := make(map[float64]int)
	const rounds = 20000
	for i := 0; i < rounds; i++ {
		batch, err := m.Sample(3)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		for _, b := range batch {
			if b.Reward < 15 {
				t.Fatalf("sampled evicted transition %v", b.Reward)
			}
			counts[b.Reward]++
		}
	}
	// Each of the 10 entries is expected 6000 times.
	for id, c := range counts {
		if c < 5400 || c > 6600 {
			t.Fatalf("transition %v drawn %d times, expected about 6000", id, c)
		}
	}
	if len(counts) != 10 {
		t.Fatalf("only %d of 10 entries were ever drawn", len(counts))
	}
}

func TestMemory_AppendCopiesObservations(t *testing.T) {
	m := New(4, nil)
	state := []float64{1, 2, 3}
	m.Append(Transition{State: state, NextState: state})
	state[0] = 99
	if got := m.Transitions()[0].State[0]; got != 1 {
		t.Fatalf("stored state aliased caller slice: %v", got)
	}
}

func TestMemory_Deterministic(t *testing.T) {
	sample := func() []float64 {
		m := New(20, rand.New(rand.NewSource(11)))
		for i := 0; i < 20; i++ {
			m.Append(tr(i))
		}
		batch, _ := m.Sample(5)
		out := make([]float64, len(batch))
		for i, b := range batch {
			out[i] = b.Reward
		}
		return out
	}
	a, b := sample(), sample()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different batches: %v vs %v", a, b)
		}
	}
}

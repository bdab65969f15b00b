package agent

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/Preetham2702/AI-Snake-agent/internal/checkpoint"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
	"github.com/Preetham2702/AI-Snake-agent/internal/replay"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Hidden1 = 16
	cfg.MemorySize = 64
	cfg.BatchSize = 4
	cfg.TargetSyncEvery = 5
	return cfg
}

func newTestAgent(t *testing.T, cfg Config, seed int64) *Agent {
	t.Helper()
	a, err := New(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func randomObs(rng *rand.Rand) []float64 {
	obs := make([]float64, env.ObsDim)
	for i := range obs {
		obs[i] = float64(rng.Intn(2))
	}
	return obs
}

func fill(t *testing.T, a *Agent, n int, rng *rand.Rand) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := a.Remember(replay.Transition{
			State:     randomObs(rng),
			Action:    rng.Intn(env.NumActions),
			Reward:    rng.NormFloat64() * 10,
			NextState: randomObs(rng),
			Done:      rng.Intn(5) == 0,
		})
		if err != nil {
			t.Fatalf("Remember: %v", err)
		}
	}
}

func TestNew_TargetStartsSynced(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 1)
	if !a.TargetSynced() {
		t.Fatalf("fresh agent has diverged target")
	}
	if a.Epsilon() != 1.0 {
		t.Fatalf("epsilon=%v want 1", a.Epsilon())
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.MemorySize = 2; c.BatchSize = 4 },
		func(c *Config) { c.ActionCount = 4 },
		func(c *Config) { c.Gamma = 1.5 },
		func(c *Config) { c.TargetSyncEvery = 0 },
		func(c *Config) { c.EpsilonDecay = 0 },
		func(c *Config) { c.EpsilonMin = 0.5; c.EpsilonStart = 0.1 },
	}
	for i, mutate := range bad {
		cfg := smallConfig()
		mutate(&cfg)
		if _, err := New(cfg, nil); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestEndEpisode_DecaysToFloor(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 1)
	prev := a.Epsilon()
	for i := 0; i < 2000; i++ {
		a.EndEpisode()
		if a.Epsilon() > prev {
			t.Fatalf("epsilon increased: %v -> %v", prev, a.Epsilon())
		}
		prev = a.Epsilon()
	}
	if a.Epsilon() != 0.01 {
		t.Fatalf("epsilon=%v want floor 0.01", a.Epsilon())
	}

	b := newTestAgent(t, smallConfig(), 1)
	b.EndEpisode()
	if math.Abs(b.Epsilon()-0.995) > 1e-15 {
		t.Fatalf("one decay: %v want 0.995", b.Epsilon())
	}
}

func TestGreedy_TieBreaksLowestIndex(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 1)
	layers := a.Policy().Layers()
	for _, l := range layers {
		l.W.Zero()
		l.B.Zero()
	}
	obs := randomObs(rand.New(rand.NewSource(2)))
	if got := a.Greedy(obs); got != env.ActionLeft {
		t.Fatalf("all-zero Q: action=%v want LEFT", got)
	}

	out := layers[len(layers)-1].B
	out.SetVec(1, 2)
	out.SetVec(2, 2)
	if got := a.Greedy(obs); got != env.ActionStraight {
		t.Fatalf("tie between 1 and 2: action=%v want STRAIGHT", got)
	}

	a.SetEpsilon(0)
	for i := 0; i < 20; i++ {
		if got := a.Act(obs); got != env.ActionStraight {
			t.Fatalf("epsilon 0 explored: %v", got)
		}
	}
}

func TestAct_ExploresUniformly(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 3)
	obs := randomObs(rand.New(rand.NewSource(4)))
	counts := make(map[env.Action]int)
	for i := 0; i < 3000; i++ {
		counts[a.Act(obs)]++
	}
	for act := env.ActionLeft; act <= env.ActionRight; act++ {
		if counts[act] < 850 || counts[act] > 1150 {
			t.Fatalf("action %v chosen %d/3000 times at epsilon 1", act, counts[act])
		}
	}
}

func TestRemember_Validates(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 1)
	ok := randomObs(rand.New(rand.NewSource(1)))
	if err := a.Remember(replay.Transition{State: ok[:3], NextState: ok}); err == nil {
		t.Fatalf("expected dimension error")
	}
	if err := a.Remember(replay.Transition{State: ok, NextState: ok, Action: 3}); !errors.Is(err, env.ErrInvalidAction) {
		t.Fatalf("err=%v want ErrInvalidAction", err)
	}
	if a.MemoryLen() != 0 {
		t.Fatalf("invalid transitions were stored")
	}
}

func TestTrainStep_InsufficientData(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 1)
	fill(t, a, 3, rand.New(rand.NewSource(2)))
	before := a.Policy().Clone()

	if _, err := a.TrainStep(); !errors.Is(err, replay.ErrInsufficientData) {
		t.Fatalf("err=%v want ErrInsufficientData", err)
	}
	if a.TrainSteps() != 0 || !a.Policy().Equal(before) {
		t.Fatalf("skipped train step changed the agent")
	}
}

func TestTrainStep_TargetSyncCadence(t *testing.T) {
	cfg := smallConfig()
	a := newTestAgent(t, cfg, 1)
	fill(t, a, 32, rand.New(rand.NewSource(2)))
	target := a.target.Clone()

	for step := 1; step <= 2*cfg.TargetSyncEvery+1; step++ {
		if _, err := a.TrainStep(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		synced := a.TargetSynced()
		switch {
		case step%cfg.TargetSyncEvery == 0:
			if !synced {
				t.Fatalf("step %d: target not synced", step)
			}
			target = a.target.Clone()
		default:
			if synced {
				t.Fatalf("step %d: target synced early", step)
			}
			if !a.target.Equal(target) {
				t.Fatalf("step %d: target changed between syncs", step)
			}
		}
	}
	if a.TrainSteps() != 2*cfg.TargetSyncEvery+1 {
		t.Fatalf("train steps=%d", a.TrainSteps())
	}
}

func TestTDTarget_TerminalIgnoresNextState(t *testing.T) {
	for _, next := range [][]float64{{0, 0, 0}, {1e6, -3, 2}, {-50, -60, -70}} {
		if got := TDTarget(-100, true, 0.9, next); got != -100 {
			t.Fatalf("terminal target=%v want -100 (next=%v)", got, next)
		}
	}
	if got := TDTarget(-1, false, 0.5, []float64{2, 8, 4}); got != 3 {
		t.Fatalf("bootstrapped target=%v want 3", got)
	}
}

func TestTrainStep_LearnsTerminalReward(t *testing.T) {
	cfg := smallConfig()
	cfg.BatchSize = 8
	cfg.LearningRate = 1e-2
	a := newTestAgent(t, cfg, 5)

	obs := randomObs(rand.New(rand.NewSource(6)))
	for i := 0; i < 16; i++ {
		if err := a.Remember(replay.Transition{State: obs, Action: 2, Reward: -10, NextState: obs, Done: true}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 500; i++ {
		if _, err := a.TrainStep(); err != nil {
			t.Fatal(err)
		}
	}
	if q := a.Policy().Predict(obs)[2]; math.Abs(q+10) > 0.5 {
		t.Fatalf("Q(s, RIGHT)=%v, want about -10", q)
	}
}

func TestSaveLoad_RestoresGreedyActions(t *testing.T) {
	cfg := smallConfig()
	a := newTestAgent(t, cfg, 7)
	rng := rand.New(rand.NewSource(8))
	fill(t, a, 32, rng)
	for i := 0; i < 3; i++ {
		if _, err := a.TrainStep(); err != nil {
			t.Fatal(err)
		}
	}

	probes := make([][]float64, 32)
	for i := range probes {
		probes[i] = randomObs(rng)
	}
	a.SetEpsilon(0)
	want := make([]env.Action, len(probes))
	for i, obs := range probes {
		want[i] = a.Act(obs)
	}
	saved := a.Policy().Clone()

	path := filepath.Join(t.TempDir(), "snake_dqn.json")
	if err := a.Save(path, checkpoint.Meta{Episode: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Keep training so the live policy drifts away from the checkpoint.
	for i := 0; i < 20; i++ {
		if _, err := a.TrainStep(); err != nil {
			t.Fatal(err)
		}
	}
	if a.Policy().Equal(saved) {
		t.Fatalf("training did not move the policy")
	}

	meta, err := a.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.TrainSteps != 3 {
		t.Fatalf("meta train steps=%d want 3", meta.TrainSteps)
	}
	if !a.Policy().Equal(saved) || !a.TargetSynced() {
		t.Fatalf("load did not restore the policy and resync the target")
	}
	for i, obs := range probes {
		if got := a.Act(obs); got != want[i] {
			t.Fatalf("probe %d: action=%v want=%v", i, got, want[i])
		}
	}
}

func TestLoad_FailureLeavesAgentIntact(t *testing.T) {
	a := newTestAgent(t, smallConfig(), 9)
	before := a.Policy().Clone()
	if _, err := a.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error")
	}
	if !a.Policy().Equal(before) {
		t.Fatalf("failed load modified the policy")
	}
}

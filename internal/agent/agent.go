// Package agent implements an ε-greedy deep Q-learning agent with a replay
// memory and a hard-synced target network.
package agent

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Preetham2702/AI-Snake-agent/internal/checkpoint"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
	"github.com/Preetham2702/AI-Snake-agent/internal/nn"
	"github.com/Preetham2702/AI-Snake-agent/internal/replay"
)

// Config holds the agent hyperparameters.
type Config struct {
	StateDim        int
	ActionCount     int
	Hidden1         int
	Hidden2         int
	LearningRate    float64
	Gamma           float64
	MemorySize      int
	BatchSize       int
	TargetSyncEvery int
	EpsilonStart    float64
	EpsilonMin      float64
	EpsilonDecay    float64
}

// DefaultConfig returns the reference hyperparameters.
func DefaultConfig() Config {
	return Config{
		StateDim:        env.ObsDim,
		ActionCount:     env.NumActions,
		Hidden1:         128,
		LearningRate:    1e-3,
		Gamma:           0.9,
		MemorySize:      100_000,
		BatchSize:       1024,
		TargetSyncEvery: 1000,
		EpsilonStart:    1.0,
		EpsilonMin:      0.01,
		EpsilonDecay:    0.995,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.StateDim <= 0:
		return errors.New("agent: state dim must be positive")
	case c.ActionCount != env.NumActions:
		return fmt.Errorf("agent: action count must be %d", env.NumActions)
	case c.Hidden1 < 0 || c.Hidden2 < 0:
		return errors.New("agent: hidden widths must be non-negative")
	case c.LearningRate <= 0:
		return errors.New("agent: learning rate must be positive")
	case c.Gamma < 0 || c.Gamma > 1:
		return errors.New("agent: gamma must be in [0, 1]")
	case c.BatchSize <= 0 || c.MemorySize < c.BatchSize:
		return errors.New("agent: need 0 < batch size <= memory size")
	case c.TargetSyncEvery <= 0:
		return errors.New("agent: target sync interval must be positive")
	case c.EpsilonMin < 0 || c.EpsilonStart < c.EpsilonMin || c.EpsilonStart > 1:
		return errors.New("agent: need 0 <= epsilon min <= epsilon start <= 1")
	case c.EpsilonDecay <= 0 || c.EpsilonDecay > 1:
		return errors.New("agent: epsilon decay must be in (0, 1]")
	}
	return nil
}

// Agent owns the policy and target networks, the optimizer, and the replay memory.
type Agent struct {
	cfg Config

	policy *nn.MLP
	target *nn.MLP
	opt    *nn.Adam
	memory *replay.Memory

	epsilon    float64
	trainSteps int

	rng *rand.Rand
}

// New creates an agent. rng drives weight init, exploration, and batch sampling.
func New(cfg Config, rng *rand.Rand) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	policy := nn.NewMLP(cfg.StateDim, cfg.Hidden1, cfg.Hidden2, cfg.ActionCount, rng)
	return &Agent{
		cfg:     cfg,
		policy:  policy,
		target:  policy.Clone(),
		opt:     nn.NewAdam(cfg.LearningRate),
		memory:  replay.New(cfg.MemorySize, rand.New(rand.NewSource(rng.Int63()))),
		epsilon: cfg.EpsilonStart,
		rng:     rng,
	}, nil
}

// Config returns the hyperparameters the agent was built with.
func (a *Agent) Config() Config { return a.cfg }

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 { return a.epsilon }

// SetEpsilon overrides the exploration rate, clamped to [0, 1].
func (a *Agent) SetEpsilon(eps float64) {
	a.epsilon = math.Max(0, math.Min(1, eps))
}

// TrainSteps returns the number of gradient updates applied.
func (a *Agent) TrainSteps() int { return a.trainSteps }

// MemoryLen returns the number of stored transitions.
func (a *Agent) MemoryLen() int { return a.memory.Len() }

// Policy returns the live policy network. Callers must not train it.
func (a *Agent) Policy() *nn.MLP { return a.policy }

// TargetSynced reports whether the target equals the policy bit for bit.
func (a *Agent) TargetSynced() bool { return a.target.Equal(a.policy) }

// Act picks an action ε-greedily.
func (a *Agent) Act(obs []float64) env.Action {
	if a.rng.Float64() < a.epsilon {
		return env.Action(a.rng.Intn(a.cfg.ActionCount))
	}
	return a.Greedy(obs)
}

// Greedy returns argmax_a Q(obs, a), ties broken toward the lowest index.
func (a *Agent) Greedy(obs []float64) env.Action {
	return env.Action(floats.MaxIdx(a.policy.Predict(obs)))
}

// Remember stores a transition in the replay memory.
func (a *Agent) Remember(t replay.Transition) error {
	if len(t.State) != a.cfg.StateDim || len(t.NextState) != a.cfg.StateDim {
		return fmt.Errorf("agent: transition has %d/%d features, want %d", len(t.State), len(t.NextState), a.cfg.StateDim)
	}
	if t.Action < 0 || t.Action >= a.cfg.ActionCount {
		return fmt.Errorf("%w: %d", env.ErrInvalidAction, t.Action)
	}
	a.memory.Append(t)
	return nil
}

// TDTarget is r + γ·max Q_target(s') for non-terminal transitions and r otherwise.
func TDTarget(reward float64, done bool, gamma float64, nextQ []float64) float64 {
	if done {
		return reward
	}
	return reward + gamma*floats.Max(nextQ)
}

// TrainStep samples a batch and applies one update to the policy. It
// returns replay.ErrInsufficientData, without touching anything, while the
// memory holds fewer than BatchSize transitions.
func (a *Agent) TrainStep() (float64, error) {
	batch, err := a.memory.Sample(a.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	n := len(batch)
	states := mat.NewDense(n, a.cfg.StateDim, nil)
	next := mat.NewDense(n, a.cfg.StateDim, nil)
	actions := make([]int, n)
	for i, t := range batch {
		states.SetRow(i, t.State)
		next.SetRow(i, t.NextState)
		actions[i] = t.Action
	}

	qNext := a.target.PredictBatch(next)
	targets := make([]float64, n)
	row := make([]float64, a.cfg.ActionCount)
	for i, t := range batch {
		targets[i] = TDTarget(t.Reward, t.Done, a.cfg.Gamma, mat.Row(row, i, qNext))
	}

	loss := a.policy.Fit(a.opt, states, actions, targets)

	a.trainSteps++
	if a.trainSteps%a.cfg.TargetSyncEvery == 0 {
		a.syncTarget()
	}
	return loss, nil
}

// EndEpisode decays the exploration rate once.
func (a *Agent) EndEpisode() {
	a.epsilon = math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)
}

// Save persists the policy parameters only.
func (a *Agent) Save(path string, meta checkpoint.Meta) error {
	meta.TrainSteps = a.trainSteps
	return checkpoint.Save(path, a.policy, meta)
}

// Load restores the policy and immediately copies it into the target.
func (a *Agent) Load(path string) (checkpoint.Meta, error) {
	restored := a.policy.Clone()
	meta, err := checkpoint.Restore(path, restored)
	if err != nil {
		return checkpoint.Meta{}, err
	}
	if err := a.policy.CopyFrom(restored); err != nil {
		return checkpoint.Meta{}, err
	}
	a.syncTarget()
	return meta, nil
}

func (a *Agent) syncTarget() {
	// Both networks share one architecture, so the copy cannot fail.
	if err := a.target.CopyFrom(a.policy); err != nil {
		panic(err)
	}
}

// Package train runs the episode loop that connects the game, the reward
// shaping, and the DQN agent, and writes checkpoints as it goes.
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Preetham2702/AI-Snake-agent/internal/agent"
	"github.com/Preetham2702/AI-Snake-agent/internal/checkpoint"
	"github.com/Preetham2702/AI-Snake-agent/internal/config"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
	"github.com/Preetham2702/AI-Snake-agent/internal/eval"
	"github.com/Preetham2702/AI-Snake-agent/internal/logging"
	"github.com/Preetham2702/AI-Snake-agent/internal/replay"
)

// Checkpoint and trace file names inside the checkpoint directory.
const (
	BestFile     = "snake_dqn_best.json"
	PeriodicFile = "snake_dqn.json"
	FinalFile    = "snake_dqn_final.json"
	TraceFile    = "best_trace.json"
)

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID       string
	Episodes    int // episodes completed
	BestScore   int
	BestEpisode int
	TrainSteps  int
	Epsilon     float64
	Elapsed     time.Duration
	LastEval    *env.AggregatedStats
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithConsole sets the structured logger for progress lines.
func WithConsole(l *slog.Logger) Option {
	return func(t *Trainer) { t.console = l }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(t *Trainer) { t.runID = id }
}

// Trainer owns one game, one agent, and the run's output files.
type Trainer struct {
	cfg     *config.Config
	game    *env.Game
	agent   *agent.Agent
	reward  Reward
	eval    *eval.Evaluator
	console *slog.Logger
	runID   string
}

// New builds a trainer from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:    cfg,
		reward: RewardFromConfig(cfg.Reward),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.console == nil {
		t.console = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if t.runID == "" {
		t.runID = uuid.NewString()
	}

	game, err := env.NewGame(cfg.EnvOptions(), rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}
	t.game = game

	a, err := agent.New(cfg.AgentConfig(), rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, err
	}
	t.agent = a

	if cfg.Eval.Every > 0 && len(cfg.Eval.Seeds) > 0 {
		evalOpts := cfg.EnvOptions()
		evalOpts.TickCap = cfg.Eval.TickCap
		t.eval = eval.NewEvaluator(evalOpts, cfg.Eval.Workers)
	}
	return t, nil
}

// Agent returns the agent being trained.
func (t *Trainer) Agent() *agent.Agent { return t.agent }

// RunID returns the identifier attached to logs and checkpoints.
func (t *Trainer) RunID() string { return t.runID }

// episodeResult is what one episode hands back to the loop.
type episodeResult struct {
	stats    env.EpisodeStats
	meanLoss float64
	updates  int
	trace    *env.Trace
}

// Run trains for the configured number of episodes. The context is checked
// between episodes; a cancelled run returns ctx.Err() without a final
// checkpoint. A failed checkpoint write aborts the run.
func (t *Trainer) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	sum = Summary{RunID: t.runID}
	defer func() {
		sum.TrainSteps = t.agent.TrainSteps()
		sum.Epsilon = t.agent.Epsilon()
		sum.Elapsed = time.Since(start)
	}()

	metrics, err := logging.NewLogger(t.cfg.Logging.CSVPath, t.cfg.Logging.JSONPath, t.cfg.Logging.ParquetPath, t.console)
	if err != nil {
		return sum, fmt.Errorf("train: create metrics logger: %w", err)
	}
	if err := metrics.Init(); err != nil {
		return sum, fmt.Errorf("train: open metrics: %w", err)
	}
	defer func() {
		if cerr := metrics.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("train: close metrics: %w", cerr))
		}
	}()

	dir := t.cfg.Train.CheckpointDir
	t.console.Info("training started",
		"run", t.runID,
		"episodes", t.cfg.Train.Episodes,
		"grid", fmt.Sprintf("%dx%d", t.cfg.Env.Width, t.cfg.Env.Height),
		"checkpoints", dir,
	)

	for ep := 1; ep <= t.cfg.Train.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		epStart := time.Now()
		res, err := t.runEpisode(ep)
		if err != nil {
			return sum, fmt.Errorf("train: episode %d: %w", ep, err)
		}
		t.agent.EndEpisode()
		sum.Episodes = ep

		score := res.stats.Score
		if score > sum.BestScore {
			sum.BestScore = score
			sum.BestEpisode = ep
			if err := t.save(BestFile, ep, score); err != nil {
				return sum, err
			}
			if res.trace != nil {
				if err := res.trace.Save(filepath.Join(dir, TraceFile)); err != nil {
					return sum, fmt.Errorf("train: save trace: %w", err)
				}
			}
		}
		if t.cfg.Train.SaveEvery > 0 && ep%t.cfg.Train.SaveEvery == 0 {
			if err := t.save(PeriodicFile, ep, score); err != nil {
				return sum, err
			}
		}

		row := logging.EpisodeRow{
			RunID:     t.runID,
			Episode:   int32(ep),
			Score:     int32(score),
			Best:      int32(sum.BestScore),
			Ticks:     int32(res.stats.Ticks),
			Return:    res.stats.Return,
			Epsilon:   t.agent.Epsilon(),
			MeanLoss:  res.meanLoss,
			Updates:   int32(res.updates),
			Death:     res.stats.Death.String(),
			Won:       res.stats.Won,
			ElapsedMS: time.Since(epStart).Milliseconds(),
		}
		if err := metrics.LogEpisode(row); err != nil {
			return sum, fmt.Errorf("train: log episode: %w", err)
		}

		if t.eval != nil && ep%t.cfg.Eval.Every == 0 {
			agg, err := t.eval.Evaluate(ctx, t.agent.Policy(), t.cfg.Eval.Seeds)
			if err != nil {
				return sum, fmt.Errorf("train: evaluate: %w", err)
			}
			metrics.LogEval(ep, agg)
			sum.LastEval = &agg
		}
	}

	if err := t.save(FinalFile, sum.Episodes, sum.BestScore); err != nil {
		return sum, err
	}
	t.console.Info("training finished",
		"run", t.runID,
		"episodes", sum.Episodes,
		"best", sum.BestScore,
		"train_steps", t.agent.TrainSteps(),
	)
	return sum, nil
}

// runEpisode plays one ε-greedy episode, storing and learning from every tick.
func (t *Trainer) runEpisode(ep int) (episodeResult, error) {
	seed := t.cfg.Seed + int64(ep)
	t.game.Reseed(seed)
	state := t.game.Reset()
	obs := env.Encode(state)

	var res episodeResult
	if t.cfg.Train.SaveTraces {
		res.trace = env.NewTrace(seed, t.game.Options())
	}

	var ret, lossSum float64
	for !state.Done {
		action := t.agent.Act(obs)
		step, err := t.game.StepAction(action)
		if err != nil {
			return res, err
		}
		if res.trace != nil {
			res.trace.Record(action)
		}

		r := t.reward.Shape(state, step)
		ret += r
		next := env.Encode(step.State)
		if err := t.agent.Remember(replay.Transition{
			State:     obs,
			Action:    int(action),
			Reward:    r,
			NextState: next,
			Done:      step.Done(),
		}); err != nil {
			return res, err
		}

		loss, err := t.agent.TrainStep()
		switch {
		case errors.Is(err, replay.ErrInsufficientData):
		case err != nil:
			return res, err
		default:
			lossSum += loss
			res.updates++
		}

		state = step.State
		obs = next
	}

	if res.trace != nil {
		res.trace.Finish(state)
	}
	if res.updates > 0 {
		res.meanLoss = lossSum / float64(res.updates)
	}
	res.stats = env.StatsOf(state, seed)
	res.stats.Return = ret
	return res, nil
}

func (t *Trainer) save(name string, ep, score int) error {
	path := filepath.Join(t.cfg.Train.CheckpointDir, name)
	err := t.agent.Save(path, checkpoint.Meta{RunID: t.runID, Episode: ep, Score: score})
	if err != nil {
		t.console.Error("checkpoint failed", "path", path, "err", err)
		return err
	}
	t.console.Debug("checkpoint saved", "path", path, "episode", ep, "score", score)
	return nil
}

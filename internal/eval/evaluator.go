// Package eval plays greedy episodes with a frozen copy of a Q-network.
package eval

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/Preetham2702/AI-Snake-agent/internal/env"
	"github.com/Preetham2702/AI-Snake-agent/internal/nn"
)

// Evaluator handles greedy episode evaluation over fixed seeds
type Evaluator struct {
	opts    env.Options
	workers int
}

// NewEvaluator creates a new evaluator. workers <= 0 uses every CPU.
// With neither a tick cap nor a stall window set, episodes stall out after
// 4·W·H ticks without food; a greedy policy can otherwise circle forever.
func NewEvaluator(opts env.Options, workers int) *Evaluator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.TickCap <= 0 && opts.StallWindow <= 0 {
		opts.StallWindow = 4 * opts.Width * opts.Height
	}
	return &Evaluator{opts: opts, workers: workers}
}

// Workers returns the size of the worker pool.
func (e *Evaluator) Workers() int { return e.workers }

// Play runs a single greedy episode with the given network and seed.
// If trace is non-nil, every action taken is recorded into it.
func (e *Evaluator) Play(net *nn.MLP, seed int64, trace *env.Trace) (env.EpisodeStats, error) {
	game, err := env.NewGame(e.opts, rand.New(rand.NewSource(seed)))
	if err != nil {
		return env.EpisodeStats{}, err
	}

	// Create local feature extractor (avoid race conditions)
	features := env.NewFeatureExtractor()
	state := game.State()
	for !state.Done {
		action := env.Action(floats.MaxIdx(net.Predict(features.Extract(game))))
		if trace != nil {
			trace.Record(action)
		}
		res, err := game.StepAction(action)
		if err != nil {
			return env.EpisodeStats{}, err
		}
		state = res.State
	}
	if trace != nil {
		trace.Finish(state)
	}
	return env.StatsOf(state, seed), nil
}

// Evaluate plays one greedy episode per seed on a private clone of net and
// aggregates the results. It stops handing out seeds once ctx is done.
func (e *Evaluator) Evaluate(ctx context.Context, net *nn.MLP, seeds []int64) (env.AggregatedStats, error) {
	frozen := net.Clone()
	episodes := make([]env.EpisodeStats, len(seeds))
	errs := make([]error, len(seeds))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return env.AggregatedStats{}, err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, seed int64) {
			defer wg.Done()
			defer func() { <-sem }()
			episodes[i], errs[i] = e.Play(frozen, seed, nil)
		}(i, seed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return env.AggregatedStats{}, err
		}
	}
	return env.Aggregate(episodes), nil
}

// PlayWithTrace runs a greedy episode and returns its action trace
func (e *Evaluator) PlayWithTrace(net *nn.MLP, seed int64) (*env.Trace, env.EpisodeStats, error) {
	trace := env.NewTrace(seed, e.opts)
	stats, err := e.Play(net, seed, trace)
	if err != nil {
		return nil, env.EpisodeStats{}, err
	}
	return trace, stats, nil
}

package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/Preetham2702/AI-Snake-agent/internal/checkpoint"
	"github.com/Preetham2702/AI-Snake-agent/internal/config"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
	"github.com/Preetham2702/AI-Snake-agent/internal/nn"
)

type playFlags struct {
	configPath string
	modelPath  string
	tracePath  string
	seed       int64
	delay      int
	noDisplay  bool
	maxTicks   int
	noStall    bool
}

func main() {
	var f playFlags

	rootCmd := &cobra.Command{
		Use:   "play",
		Short: "Watch a trained snake agent or replay a recorded trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.tracePath != "" {
				return playTrace(f)
			}
			return playModel(f)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&f.configPath, "config", "configs/default.yaml", "path to config file")
	rootCmd.Flags().StringVar(&f.modelPath, "model", "Models/snake_dqn_best.json", "path to checkpoint JSON")
	rootCmd.Flags().StringVar(&f.tracePath, "trace", "", "replay an action trace instead of running a model")
	rootCmd.Flags().Int64Var(&f.seed, "seed", 12345, "random seed for the game")
	rootCmd.Flags().IntVar(&f.delay, "delay", 100, "delay between frames in milliseconds")
	rootCmd.Flags().BoolVar(&f.noDisplay, "no-display", false, "run without display (just print stats)")
	rootCmd.Flags().IntVar(&f.maxTicks, "max-ticks", 5000, "tick cap for model play (0 keeps the config value)")
	rootCmd.Flags().BoolVar(&f.noStall, "no-stall", false, "disable stall detection")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func playModel(f playFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts := cfg.EnvOptions()
	if f.maxTicks > 0 {
		opts.TickCap = f.maxTicks
	}
	if f.noStall {
		opts.StallWindow = 0
	}

	net := nn.NewMLP(cfg.NN.StateDim, cfg.NN.Hidden1, cfg.NN.Hidden2, cfg.NN.ActionCount, nil)
	meta, err := checkpoint.Restore(f.modelPath, net)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s (run %s, episode %d, score %d, %d train steps)\n",
		f.modelPath, meta.RunID, meta.Episode, meta.Score, meta.TrainSteps)
	fmt.Printf("Config: %s, Seed: %d\n", f.configPath, f.seed)
	fmt.Println("Press Ctrl+C to exit")
	fmt.Println()

	game, err := env.NewGame(opts, rand.New(rand.NewSource(f.seed)))
	if err != nil {
		return err
	}
	features := env.NewFeatureExtractor()
	display := NewDisplay(opts.Width, opts.Height)
	frameDelay := time.Duration(f.delay) * time.Millisecond

	state := game.State()
	for !state.Done {
		action := env.Action(floats.MaxIdx(net.Predict(features.Extract(game))))
		if !f.noDisplay {
			display.Render(state, action)
			time.Sleep(frameDelay)
		}
		res, err := game.StepAction(action)
		if err != nil {
			return err
		}
		state = res.State
	}

	if !f.noDisplay {
		display.Render(state, -1)
	}
	printStats(env.StatsOf(state, f.seed))
	return nil
}

func playTrace(f playFlags) error {
	trace, err := env.LoadTrace(f.tracePath)
	if err != nil {
		return err
	}
	game, err := trace.Playback()
	if err != nil {
		return err
	}
	fmt.Printf("Replaying %s: seed %d, %d actions, recorded score %d (%s)\n",
		f.tracePath, trace.Seed, len(trace.Actions), trace.Score, trace.Death)

	display := NewDisplay(game.Width(), game.Height())
	frameDelay := time.Duration(f.delay) * time.Millisecond

	state := game.State()
	for _, action := range trace.Actions {
		if state.Done {
			break
		}
		if !f.noDisplay {
			display.Render(state, action)
			time.Sleep(frameDelay)
		}
		res, err := game.StepAction(action)
		if err != nil {
			return err
		}
		state = res.State
	}

	if !f.noDisplay {
		display.Render(state, -1)
	}
	printStats(env.StatsOf(state, trace.Seed))
	if state.Score != trace.Score {
		return fmt.Errorf("trace diverged: replayed score %d, recorded %d", state.Score, trace.Score)
	}
	return nil
}

func printStats(stats env.EpisodeStats) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	if stats.Won {
		fmt.Println("  Board filled!")
	} else {
		fmt.Printf("  Game Over! Death: %s\n", stats.Death)
	}
	fmt.Printf("  Ticks: %d, Score: %d\n", stats.Ticks, stats.Score)
	fmt.Println("═══════════════════════════════════")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Preetham2702/AI-Snake-agent/internal/config"
	"github.com/Preetham2702/AI-Snake-agent/internal/logging"
	"github.com/Preetham2702/AI-Snake-agent/internal/train"
)

func main() {
	var (
		configPath string
		episodes   int
		seed       int64
		resume     string
	)

	rootCmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DQN agent to play snake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			// Flags win over both the file and the environment.
			if cmd.Flags().Changed("episodes") {
				cfg.Train.Episodes = episodes
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTraining(cmd.Context(), cfg, resume)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&configPath, "config", "configs/default.yaml", "path to config file")
	rootCmd.Flags().IntVar(&episodes, "episodes", 0, "number of episodes to run (overrides config)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "base seed (overrides config)")
	rootCmd.Flags().StringVar(&resume, "resume", "", "checkpoint to start the policy from")

	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func runTraining(ctx context.Context, cfg *config.Config, resume string) error {
	console := logging.NewConsole(os.Stderr, cfg.Logging.Level)

	tr, err := train.New(cfg, train.WithConsole(console))
	if err != nil {
		return err
	}
	if resume != "" {
		meta, err := tr.Agent().Load(resume)
		if err != nil {
			return err
		}
		console.Info("resumed policy", "path", resume, "from_run", meta.RunID, "episode", meta.Episode, "score", meta.Score)
	}

	console.Info("network",
		"run", tr.RunID(),
		"sizes", fmt.Sprint(tr.Agent().Policy().Sizes()),
		"params", tr.Agent().Policy().ParamCount(),
	)

	sum, err := tr.Run(ctx)
	console.Info("summary",
		"run", sum.RunID,
		"episodes", sum.Episodes,
		"best", sum.BestScore,
		"best_episode", sum.BestEpisode,
		"train_steps", sum.TrainSteps,
		"epsilon", sum.Epsilon,
		"elapsed", sum.Elapsed.Round(time.Millisecond).String(),
	)
	return err
}

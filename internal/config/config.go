package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Preetham2702/AI-Snake-agent/internal/agent"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
)

// Config is the root configuration structure
type Config struct {
	Seed    int64        `yaml:"seed"`
	Env     EnvConfig    `yaml:"env"`
	NN      NNConfig     `yaml:"nn"`
	Agent   AgentConfig  `yaml:"agent"`
	Train   TrainConfig  `yaml:"train"`
	Reward  RewardConfig `yaml:"reward"`
	Eval    EvalConfig   `yaml:"eval"`
	Logging LogConfig    `yaml:"logging"`
}

// EnvConfig defines environment parameters
type EnvConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	StartLength int `yaml:"start_length"`
	TickCap     int `yaml:"tick_cap"`     // 0 disables
	StallWindow int `yaml:"stall_window"` // 0 disables
}

// NNConfig defines the Q-network architecture
type NNConfig struct {
	StateDim    int `yaml:"state_dim"`
	ActionCount int `yaml:"action_count"`
	Hidden1     int `yaml:"hidden1"`
	Hidden2     int `yaml:"hidden2"`
}

// AgentConfig defines learning parameters
type AgentConfig struct {
	LearningRate      float64 `yaml:"learning_rate"`
	Gamma             float64 `yaml:"gamma"`
	MemorySize        int     `yaml:"memory_size"`
	BatchSize         int     `yaml:"batch_size"`
	TargetUpdateEvery int     `yaml:"target_update_every"`
	EpsilonStart      float64 `yaml:"epsilon_start"`
	EpsilonMin        float64 `yaml:"epsilon_min"`
	EpsilonDecay      float64 `yaml:"epsilon_decay"`
}

// TrainConfig defines the episode loop
type TrainConfig struct {
	Episodes      int    `yaml:"episodes"`
	SaveEvery     int    `yaml:"save_every"`
	CheckpointDir string `yaml:"checkpoint_dir"`
	SaveTraces    bool   `yaml:"save_traces"`
}

// RewardConfig defines reward shaping constants
type RewardConfig struct {
	Death   float64 `yaml:"death"`
	Food    float64 `yaml:"food"`
	Step    float64 `yaml:"step"`
	Shaping float64 `yaml:"shaping"`
}

// EvalConfig defines greedy evaluation during training
type EvalConfig struct {
	Every   int     `yaml:"every"` // 0 disables
	Seeds   []int64 `yaml:"seeds"`
	Workers int     `yaml:"workers"`
	TickCap int     `yaml:"tick_cap"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level       string `yaml:"level"`
	CSVPath     string `yaml:"csv_path"`
	JSONPath    string `yaml:"json_path"`
	ParquetPath string `yaml:"parquet_path"`
}

// Default returns the reference configuration.
func Default() *Config {
	a := agent.DefaultConfig()
	return &Config{
		Seed: 1337,
		Env: EnvConfig{
			Width:       20,
			Height:      20,
			StartLength: 3,
		},
		NN: NNConfig{
			StateDim:    a.StateDim,
			ActionCount: a.ActionCount,
			Hidden1:     a.Hidden1,
			Hidden2:     a.Hidden2,
		},
		Agent: AgentConfig{
			LearningRate:      a.LearningRate,
			Gamma:             a.Gamma,
			MemorySize:        a.MemorySize,
			BatchSize:         a.BatchSize,
			TargetUpdateEvery: a.TargetSyncEvery,
			EpsilonStart:      a.EpsilonStart,
			EpsilonMin:        a.EpsilonMin,
			EpsilonDecay:      a.EpsilonDecay,
		},
		Train: TrainConfig{
			Episodes:      2000,
			SaveEvery:     100,
			CheckpointDir: "Models",
			SaveTraces:    true,
		},
		Reward: RewardConfig{
			Death:   -100,
			Food:    10,
			Step:    -1,
			Shaping: 0.2,
		},
		Eval: EvalConfig{
			Seeds:   []int64{2000, 2001, 2002, 2003, 2004, 2005, 2006, 2007, 2008, 2009},
			TickCap: 2000,
		},
		Logging: LogConfig{
			Level:       "info",
			CSVPath:     "runs/run.csv",
			JSONPath:    "runs/run.jsonl",
			ParquetPath: "runs/episodes.parquet",
		},
	}
}

// Load reads a YAML config file over the defaults and returns a Config.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides selected fields from SNAKEAI_* environment variables.
func (c *Config) ApplyEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{"SNAKEAI_EPISODES", &c.Train.Episodes},
		{"SNAKEAI_SAVE_EVERY", &c.Train.SaveEvery},
		{"SNAKEAI_WIDTH", &c.Env.Width},
		{"SNAKEAI_HEIGHT", &c.Env.Height},
		{"SNAKEAI_BATCH_SIZE", &c.Agent.BatchSize},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}
	if raw, ok := os.LookupEnv("SNAKEAI_SEED"); ok {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("SNAKEAI_SEED: %w", err)
		}
		c.Seed = seed
	}
	if raw, ok := os.LookupEnv("SNAKEAI_CHECKPOINT_DIR"); ok {
		c.Train.CheckpointDir = raw
	}
	if raw, ok := os.LookupEnv("SNAKEAI_LOG_LEVEL"); ok {
		c.Logging.Level = raw
	}
	return c.Validate()
}

// Validate checks the configuration for values the trainer cannot run with.
func (c *Config) Validate() error {
	if c.Env.Width < 2 || c.Env.Height < 1 {
		return fmt.Errorf("config: grid %dx%d too small", c.Env.Width, c.Env.Height)
	}
	if c.NN.StateDim != env.ObsDim {
		return fmt.Errorf("config: state_dim must be %d", env.ObsDim)
	}
	if c.Train.Episodes < 0 {
		return errors.New("config: episodes must be non-negative")
	}
	if c.Train.SaveEvery < 0 || c.Eval.Every < 0 {
		return errors.New("config: cadences must be non-negative")
	}
	if c.Train.CheckpointDir == "" {
		return errors.New("config: checkpoint_dir is required")
	}
	return c.AgentConfig().Validate()
}

// AgentConfig maps the YAML sections onto agent.Config.
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		StateDim:        c.NN.StateDim,
		ActionCount:     c.NN.ActionCount,
		Hidden1:         c.NN.Hidden1,
		Hidden2:         c.NN.Hidden2,
		LearningRate:    c.Agent.LearningRate,
		Gamma:           c.Agent.Gamma,
		MemorySize:      c.Agent.MemorySize,
		BatchSize:       c.Agent.BatchSize,
		TargetSyncEvery: c.Agent.TargetUpdateEvery,
		EpsilonStart:    c.Agent.EpsilonStart,
		EpsilonMin:      c.Agent.EpsilonMin,
		EpsilonDecay:    c.Agent.EpsilonDecay,
	}
}

// EnvOptions maps the env section onto env.Options.
func (c *Config) EnvOptions() env.Options {
	return env.Options{
		Width:       c.Env.Width,
		Height:      c.Env.Height,
		InitLength:  c.Env.StartLength,
		TickCap:     c.Env.TickCap,
		StallWindow: c.Env.StallWindow,
	}
}

package env

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// Trace stores a deterministic action trace for playback
type Trace struct {
	Seed    int64        `json:"seed"`
	Actions []Action     `json:"actions"`
	Score   int          `json:"score"`
	Death   string       `json:"death"`
	Config  TraceOptions `json:"config"`
}

// TraceOptions stores environment options for playback
type TraceOptions struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	InitLength  int `json:"init_length"`
	TickCap     int `json:"tick_cap"`
	StallWindow int `json:"stall_window"`
}

// NewTrace creates a new trace recorder
func NewTrace(seed int64, opts Options) *Trace {
	return &Trace{
		Seed:    seed,
		Actions: make([]Action, 0, 256),
		Config: TraceOptions{
			Width:       opts.Width,
			Height:      opts.Height,
			InitLength:  opts.InitLength,
			TickCap:     opts.TickCap,
			StallWindow: opts.StallWindow,
		},
	}
}

// Record adds an action to the trace
func (t *Trace) Record(action Action) {
	t.Actions = append(t.Actions, action)
}

// Finish stores the final outcome
func (t *Trace) Finish(s State) {
	t.Score = s.Score
	t.Death = s.Death.String()
}

// Save writes the trace to a file
func (t *Trace) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTrace loads a trace from a file
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode trace %s: %w", path, err)
	}
	return &t, nil
}

// Playback recreates the freshly reset game the trace started from
func (t *Trace) Playback() (*Game, error) {
	return NewGame(Options{
		Width:       t.Config.Width,
		Height:      t.Config.Height,
		InitLength:  t.Config.InitLength,
		TickCap:     t.Config.TickCap,
		StallWindow: t.Config.StallWindow,
	}, rand.New(rand.NewSource(t.Seed)))
}

// PlaybackStep runs the trace up to step n
func (t *Trace) PlaybackStep(g *Game, step int) error {
	if step > len(t.Actions) {
		step = len(t.Actions)
	}
	for i := 0; i < step && !g.done; i++ {
		if _, err := g.StepAction(t.Actions[i]); err != nil {
			return err
		}
	}
	return nil
}

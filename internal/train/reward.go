package train

import (
	"github.com/Preetham2702/AI-Snake-agent/internal/config"
	"github.com/Preetham2702/AI-Snake-agent/internal/env"
)

// Reward turns an engine tick into a scalar training signal.
type Reward struct {
	Death   float64 // collision, stall or timeout
	Food    float64 // food eaten, the board-filling bite included
	Step    float64 // any other tick
	Shaping float64 // added when the head moved closer to the food, subtracted otherwise
}

// RewardFromConfig builds a Reward from the reward section.
func RewardFromConfig(c config.RewardConfig) Reward {
	return Reward{Death: c.Death, Food: c.Food, Step: c.Step, Shaping: c.Shaping}
}

// Shape scores the tick that turned before into res. Distances are measured
// to the food that was on the board before the tick.
func (r Reward) Shape(before env.State, res env.StepResult) float64 {
	after := res.State
	switch {
	case after.Done && after.Death != env.DeathNone:
		return r.Death
	case res.AteFood:
		return r.Food
	}

	prevDist := before.Head().Manhattan(before.Food)
	newDist := after.Head().Manhattan(before.Food)
	if newDist < prevDist {
		return r.Step + r.Shaping
	}
	return r.Step - r.Shaping
}

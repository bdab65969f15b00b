package env

import "gonum.org/v1/gonum/stat"

// DeathReason indicates how the episode ended
type DeathReason int

const (
	DeathNone    DeathReason = iota // still running, or the board filled up
	DeathWall                       // hit a wall
	DeathSelf                       // hit own body
	DeathStall                      // no food for too long
	DeathTimeout                    // tick cap reached
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathWall:
		return "wall"
	case DeathSelf:
		return "self"
	case DeathStall:
		return "stall"
	case DeathTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Score  int         // food eaten
	Ticks  int         // ticks survived
	Return float64     // sum of shaped rewards, 0 for greedy evaluation
	Death  DeathReason // how the episode ended
	Won    bool        // board filled
	Seed   int64       // seed used for food placement
}

// StatsOf summarizes a finished game state.
func StatsOf(s State, seed int64) EpisodeStats {
	return EpisodeStats{
		Score: s.Score,
		Ticks: s.Tick,
		Death: s.Death,
		Won:   s.Won(),
		Seed:  seed,
	}
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	ScoreMean   float64
	ScoreStd    float64
	ScoreMax    int
	TicksMean   float64
	ReturnMean  float64
	Wins        int
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{
		DeathCounts: make(map[DeathReason]int),
		NumEpisodes: len(episodes),
	}
	if len(episodes) == 0 {
		return agg
	}

	scores := make([]float64, len(episodes))
	ticks := make([]float64, len(episodes))
	returns := make([]float64, len(episodes))
	for i, ep := range episodes {
		scores[i] = float64(ep.Score)
		ticks[i] = float64(ep.Ticks)
		returns[i] = ep.Return
		if ep.Score > agg.ScoreMax {
			agg.ScoreMax = ep.Score
		}
		if ep.Won {
			agg.Wins++
		}
		agg.DeathCounts[ep.Death]++
	}

	agg.ScoreMean = stat.Mean(scores, nil)
	agg.TicksMean = stat.Mean(ticks, nil)
	agg.ReturnMean = stat.Mean(returns, nil)
	// Sample std is undefined for a single episode.
	if len(scores) > 1 {
		agg.ScoreStd = stat.StdDev(scores, nil)
	}
	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.ScoreMean - lambda*a.ScoreStd
}

package env

// ObsDim is the length of the observation vector.
const ObsDim = 11

// Observation layout.
const (
	ObsDangerStraight = iota
	ObsDangerLeft
	ObsDangerRight
	ObsFoodLeft
	ObsFoodRight
	ObsFoodUp
	ObsFoodDown
	ObsDirLeft
	ObsDirRight
	ObsDirUp
	ObsDirDown
)

// Encode builds the 11-float observation for s. It is a pure function of the snapshot.
func Encode(s State) []float64 {
	obs := make([]float64, ObsDim)
	encodeInto(obs, s)
	return obs
}

// FeatureExtractor builds observation vectors into a reused buffer
type FeatureExtractor struct {
	buffer []float64
}

// NewFeatureExtractor creates a feature extractor
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{buffer: make([]float64, ObsDim)}
}

// Extract builds the observation vector for the current game state
// Returns a slice that should not be modified (internal buffer)
func (f *FeatureExtractor) Extract(g *Game) []float64 {
	encodeInto(f.buffer, g.State())
	return f.buffer
}

func encodeInto(obs []float64, s State) {
	// Danger signals (wall OR body)
	obs[ObsDangerStraight] = boolToFloat(s.Danger(ActionStraight))
	obs[ObsDangerLeft] = boolToFloat(s.Danger(ActionLeft))
	obs[ObsDangerRight] = boolToFloat(s.Danger(ActionRight))

	// Food direction, world frame; Y grows downward so "up" is smaller Y.
	head := s.Head()
	hasFood := s.Food != NoFood
	obs[ObsFoodLeft] = boolToFloat(hasFood && s.Food.X < head.X)
	obs[ObsFoodRight] = boolToFloat(hasFood && s.Food.X > head.X)
	obs[ObsFoodUp] = boolToFloat(hasFood && s.Food.Y < head.Y)
	obs[ObsFoodDown] = boolToFloat(hasFood && s.Food.Y > head.Y)

	// Heading, one-hot
	obs[ObsDirLeft] = boolToFloat(s.Dir == DirLeft)
	obs[ObsDirRight] = boolToFloat(s.Dir == DirRight)
	obs[ObsDirUp] = boolToFloat(s.Dir == DirUp)
	obs[ObsDirDown] = boolToFloat(s.Dir == DirDown)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

package nn

import "math"

// Adam is the Adam optimizer. Its moment estimates are bound to the first
// network it steps and are not persisted with checkpoints.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t    int
	m, v [][]float64
}

// NewAdam returns an Adam optimizer with the usual defaults
// (β1 = 0.9, β2 = 0.999, ε = 1e-8).
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int { return a.t }

// Step applies one bias-corrected Adam update of grads to net.
func (a *Adam) Step(net *MLP, grads []Layer) {
	params := rawParams(net.layers)
	gs := rawParams(grads)
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for k, p := range params {
			a.m[k] = make([]float64, len(p))
			a.v[k] = make([]float64, len(p))
		}
	}

	a.t++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for k, p := range params {
		g, m, v := gs[k], a.m[k], a.v[k]
		for i := range p {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g[i]
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g[i]*g[i]
			p[i] -= a.LearningRate * (m[i] / bc1) / (math.Sqrt(v[i]/bc2) + a.Epsilon)
		}
	}
}

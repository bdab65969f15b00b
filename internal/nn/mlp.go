package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is one fully connected layer: out = W·in + B.
type Layer struct {
	W *mat.Dense    // out x in
	B *mat.VecDense // out
}

// MLP is a feedforward Q-network with ReLU hidden layers and a linear output
type MLP struct {
	InputSize  int
	Hidden1    int
	Hidden2    int // 0 means no second hidden layer
	OutputSize int

	layers []Layer
}

// NewMLP creates a new MLP with the given architecture. Weights are drawn
// uniformly from ±1/sqrt(fan_in).
func NewMLP(inputSize, hidden1, hidden2, outputSize int, rng *rand.Rand) *MLP {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	m := &MLP{
		InputSize:  inputSize,
		Hidden1:    hidden1,
		Hidden2:    hidden2,
		OutputSize: outputSize,
	}

	sizes := m.Sizes()
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		bound := 1 / math.Sqrt(float64(in))
		w := make([]float64, out*in)
		for k := range w {
			w[k] = (2*rng.Float64() - 1) * bound
		}
		b := make([]float64, out)
		for k := range b {
			b[k] = (2*rng.Float64() - 1) * bound
		}
		m.layers = append(m.layers, Layer{W: mat.NewDense(out, in, w), B: mat.NewVecDense(out, b)})
	}
	return m
}

// Sizes returns the width of every layer, input and output included.
func (m *MLP) Sizes() []int {
	sizes := []int{m.InputSize}
	if m.Hidden1 > 0 {
		sizes = append(sizes, m.Hidden1)
		if m.Hidden2 > 0 {
			sizes = append(sizes, m.Hidden2)
		}
	}
	return append(sizes, m.OutputSize)
}

// ParamCount returns the total number of weights (including biases)
func (m *MLP) ParamCount() int {
	size := 0
	sizes := m.Sizes()
	for i := 1; i < len(sizes); i++ {
		size += (sizes[i-1] + 1) * sizes[i]
	}
	return size
}

// Predict returns the action values for a single observation.
func (m *MLP) Predict(obs []float64) []float64 {
	if len(obs) != m.InputSize {
		panic(fmt.Sprintf("nn: observation has %d features, network expects %d", len(obs), m.InputSize))
	}
	x := mat.NewDense(1, m.InputSize, append([]float64(nil), obs...))
	return mat.Row(nil, 0, m.PredictBatch(x))
}

// PredictBatch maps an n x InputSize batch to n x OutputSize action values.
// It only reads the parameters and is safe for concurrent use.
func (m *MLP) PredictBatch(x mat.Matrix) *mat.Dense {
	acts := m.forward(x)
	return acts[len(acts)-1].(*mat.Dense)
}

// forward returns the input followed by every layer's activation.
func (m *MLP) forward(x mat.Matrix) []mat.Matrix {
	acts := make([]mat.Matrix, len(m.layers)+1)
	acts[0] = x
	for i, l := range m.layers {
		last := i == len(m.layers)-1
		z := &mat.Dense{}
		z.Mul(acts[i], l.W.T())
		z.Apply(func(_, j int, v float64) float64 {
			v += l.B.AtVec(j)
			if last {
				return v
			}
			return relu(v)
		}, z)
		acts[i+1] = z
	}
	return acts
}

// Gradients computes the mean squared error between Q(x_i, actions[i]) and
// targets[i] and its gradient with respect to every parameter.
func (m *MLP) Gradients(x mat.Matrix, actions []int, targets []float64) (float64, []Layer) {
	acts := m.forward(x)
	q := acts[len(acts)-1]
	n, outs := q.Dims()
	if len(actions) != n || len(targets) != n {
		panic(fmt.Sprintf("nn: batch of %d rows with %d actions and %d targets", n, len(actions), len(targets)))
	}

	// Only the taken action contributes to the loss.
	dz := mat.NewDense(n, outs, nil)
	var loss float64
	for i := 0; i < n; i++ {
		diff := q.At(i, actions[i]) - targets[i]
		loss += diff * diff
		dz.Set(i, actions[i], 2*diff/float64(n))
	}
	loss /= float64(n)

	grads := make([]Layer, len(m.layers))
	for li := len(m.layers) - 1; li >= 0; li-- {
		l := m.layers[li]
		prev := acts[li]
		out, in := l.W.Dims()

		gw := mat.NewDense(out, in, nil)
		gw.Mul(dz.T(), prev)
		gb := mat.NewVecDense(out, nil)
		for j := 0; j < out; j++ {
			gb.SetVec(j, mat.Sum(dz.ColView(j)))
		}
		grads[li] = Layer{W: gw, B: gb}

		if li == 0 {
			break
		}
		da := mat.NewDense(n, in, nil)
		da.Mul(dz, l.W)
		da.Apply(func(i, j int, v float64) float64 {
			if prev.At(i, j) <= 0 {
				return 0
			}
			return v
		}, da)
		dz = da
	}
	return loss, grads
}

// Fit takes one optimizer step on this network toward targets for the taken
// actions and returns the pre-step loss.
func (m *MLP) Fit(opt *Adam, x mat.Matrix, actions []int, targets []float64) float64 {
	loss, grads := m.Gradients(x, actions, targets)
	opt.Step(m, grads)
	return loss
}

// CopyFrom overwrites every parameter with a verbatim copy of src's.
func (m *MLP) CopyFrom(src *MLP) error {
	if !sameSizes(m.Sizes(), src.Sizes()) {
		return fmt.Errorf("nn: copy from %v into %v", src.Sizes(), m.Sizes())
	}
	for i := range m.layers {
		m.layers[i].W.Copy(src.layers[i].W)
		m.layers[i].B.CopyVec(src.layers[i].B)
	}
	return nil
}

// Clone returns an independent deep copy.
func (m *MLP) Clone() *MLP {
	c := *m
	c.layers = make([]Layer, len(m.layers))
	for i, l := range m.layers {
		c.layers[i] = Layer{W: mat.DenseCopyOf(l.W), B: mat.VecDenseCopyOf(l.B)}
	}
	return &c
}

// Equal reports whether both networks hold bit-identical parameters.
func (m *MLP) Equal(o *MLP) bool {
	if !sameSizes(m.Sizes(), o.Sizes()) {
		return false
	}
	for i := range m.layers {
		if !mat.Equal(m.layers[i].W, o.layers[i].W) || !mat.Equal(m.layers[i].B, o.layers[i].B) {
			return false
		}
	}
	return true
}

// Layers exposes the parameter matrices. Callers must not resize them.
func (m *MLP) Layers() []Layer {
	return m.layers
}

// rawParams returns the backing slices of every parameter, W then B per layer.
func rawParams(layers []Layer) [][]float64 {
	out := make([][]float64, 0, 2*len(layers))
	for _, l := range layers {
		out = append(out, l.W.RawMatrix().Data, l.B.RawVector().Data)
	}
	return out
}

func sameSizes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

package nn

import "fmt"

// Params is a plain snapshot of every parameter, suitable for encoding.
type Params struct {
	Sizes  []int         `json:"sizes"`
	Layers []LayerParams `json:"layers"`
}

// LayerParams holds one layer's weights in row-major order.
type LayerParams struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// Params returns a copy of the network parameters.
func (m *MLP) Params() Params {
	p := Params{Sizes: m.Sizes(), Layers: make([]LayerParams, len(m.layers))}
	for i, l := range m.layers {
		rows, cols := l.W.Dims()
		p.Layers[i] = LayerParams{
			Rows:    rows,
			Cols:    cols,
			Weights: append([]float64(nil), l.W.RawMatrix().Data...),
			Biases:  append([]float64(nil), l.B.RawVector().Data...),
		}
	}
	return p
}

// SetParams overwrites the network parameters with p. The architecture must match.
func (m *MLP) SetParams(p Params) error {
	if !sameSizes(m.Sizes(), p.Sizes) {
		return fmt.Errorf("nn: parameters for %v, network is %v", p.Sizes, m.Sizes())
	}
	if len(p.Layers) != len(m.layers) {
		return fmt.Errorf("nn: %d layers, network has %d", len(p.Layers), len(m.layers))
	}
	for i, l := range m.layers {
		rows, cols := l.W.Dims()
		lp := p.Layers[i]
		if lp.Rows != rows || lp.Cols != cols || len(lp.Weights) != rows*cols || len(lp.Biases) != rows {
			return fmt.Errorf("nn: layer %d shape mismatch", i)
		}
	}
	for i, l := range m.layers {
		copy(l.W.RawMatrix().Data, p.Layers[i].Weights)
		copy(l.B.RawVector().Data, p.Layers[i].Biases)
	}
	return nil
}

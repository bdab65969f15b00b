package env

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode_Layout(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []float64
	}{
		{
			name: "open board food up-left",
			state: State{
				Snake: []Point{{X: 5, Y: 5}, {X: 4, Y: 5}},
				Food:  Point{X: 2, Y: 1},
				Dir:   DirRight,
				Width: 10, Height: 10,
			},
			//      dS dL dR fL fR fU fD mL mR mU mD
			want: []float64{0, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0},
		},
		{
			name: "wall ahead heading up",
			state: State{
				Snake: []Point{{X: 3, Y: 0}, {X: 3, Y: 1}},
				Food:  Point{X: 3, Y: 7},
				Dir:   DirUp,
				Width: 10, Height: 10,
			},
			want: []float64{1, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0},
		},
		{
			name: "corner heading left",
			state: State{
				Snake: []Point{{X: 0, Y: 9}, {X: 1, Y: 9}},
				Food:  Point{X: 8, Y: 9},
				Dir:   DirLeft,
				Width: 10, Height: 10,
			},
			// straight=left wall, left turn=down wall, right turn=up free
			want: []float64{1, 1, 0, 0, 1, 0, 0, 1, 0, 0, 0},
		},
		{
			name: "body on the left, tail ahead is free",
			state: State{
				// Head (1,1) moving up; the body loops round and the tail sits at (1,0).
				Snake: []Point{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
				Food:  Point{X: 4, Y: 4},
				Dir:   DirUp,
				Width: 5, Height: 5,
			},
			want: []float64{0, 1, 0, 0, 1, 0, 1, 0, 0, 1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.state)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Encode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_NoFoodSentinel(t *testing.T) {
	s := State{
		Snake: []Point{{X: 1, Y: 0}, {X: 0, Y: 0}},
		Food:  NoFood,
		Dir:   DirRight,
		Done:  true,
		Width: 2, Height: 1,
	}
	obs := Encode(s)
	for i := ObsFoodLeft; i <= ObsFoodDown; i++ {
		if obs[i] != 0 {
			t.Fatalf("food indicator %d=%v with no food on board", i, obs[i])
		}
	}
}

func TestExtract_MatchesEncode(t *testing.T) {
	g := newTestGame(t, 12, 9, 4, 3)
	f := NewFeatureExtractor()
	for i := 0; i < 5 && !g.State().Done; i++ {
		if diff := cmp.Diff(Encode(g.State()), f.Extract(g)); diff != "" {
			t.Fatalf("tick %d: extractor diverged from Encode:\n%s", i, diff)
		}
		before := g.State()
		Encode(before)
		if diff := cmp.Diff(before, g.State()); diff != "" {
			t.Fatalf("Encode mutated the game:\n%s", diff)
		}
		if _, err := g.StepAction(ActionStraight); err != nil {
			t.Fatalf("StepAction: %v", err)
		}
	}
}

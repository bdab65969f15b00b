package env

// State is a read-only snapshot of the engine. Snake is owned by the
// snapshot; mutating it never affects the Game.
type State struct {
	Snake  []Point // head is at index 0
	Food   Point
	Dir    Direction
	Score  int
	Done   bool
	Death  DeathReason
	Tick   int
	Width  int
	Height int
}

// StepResult is the outcome of a single tick.
type StepResult struct {
	State   State
	AteFood bool
}

// Done reports whether the tick ended the episode.
func (r StepResult) Done() bool { return r.State.Done }

// Head returns the snake's head position
func (s State) Head() Point {
	return s.Snake[0]
}

// Tail returns the snake's tail position
func (s State) Tail() Point {
	return s.Snake[len(s.Snake)-1]
}

// Won reports a full board: the episode ended because no free cell was left.
func (s State) Won() bool {
	return s.Done && s.Food == NoFood
}

// InBounds reports whether p lies on the grid.
func (s State) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Blocked reports whether moving the head onto p next tick would end the
// episode: p is off the grid or on the body, the vacating tail excepted.
func (s State) Blocked(p Point) bool {
	return !s.InBounds(p) || hitsBody(s.Snake, p)
}

// Danger reports whether taking a relative action next tick would collide.
func (s State) Danger(a Action) bool {
	return s.Blocked(s.Head().Add(a.Apply(s.Dir).Delta()))
}

// FoodDistance returns the Manhattan distance from head to food.
func (s State) FoodDistance() int {
	return s.Head().Manhattan(s.Food)
}

package env

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidAction is returned by StepAction for actions outside {0,1,2}.
var ErrInvalidAction = errors.New("env: invalid action")

// Direction represents the snake's heading
type Direction int

const (
	DirNone Direction = iota - 1 // keep current heading
	DirUp
	DirRight
	DirDown
	DirLeft
)

// Delta returns the unit grid vector for the direction. Y grows downward.
func (d Direction) Delta() Point {
	switch d {
	case DirUp:
		return Point{X: 0, Y: -1}
	case DirRight:
		return Point{X: 1, Y: 0}
	case DirDown:
		return Point{X: 0, Y: 1}
	case DirLeft:
		return Point{X: -1, Y: 0}
	}
	return Point{}
}

// Opposite returns the negated direction.
func (d Direction) Opposite() Direction {
	if d == DirNone {
		return DirNone
	}
	return (d + 2) % 4
}

// TurnLeft rotates the heading 90 degrees counter-clockwise.
func (d Direction) TurnLeft() Direction { return (d + 3) % 4 }

// TurnRight rotates the heading 90 degrees clockwise.
func (d Direction) TurnRight() Direction { return (d + 1) % 4 }

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirNone:
		return "none"
	default:
		return "unknown"
	}
}

// Action represents a relative action
type Action int

const (
	ActionLeft Action = iota
	ActionStraight
	ActionRight
)

// NumActions is the size of the relative action space.
const NumActions = 3

// Valid reports whether a is one of the three relative moves.
func (a Action) Valid() bool { return a >= ActionLeft && a <= ActionRight }

func (a Action) String() string {
	switch a {
	case ActionLeft:
		return "LEFT"
	case ActionStraight:
		return "STRAIGHT"
	case ActionRight:
		return "RIGHT"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Apply returns the heading after taking a relative to d.
func (a Action) Apply(d Direction) Direction {
	switch a {
	case ActionLeft:
		return d.TurnLeft()
	case ActionRight:
		return d.TurnRight()
	default:
		return d
	}
}

// Point represents a coordinate on the grid
type Point struct {
	X, Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Manhattan returns |dx| + |dy| between p and q.
func (p Point) Manhattan(q Point) int {
	dx := p.X - q.X
	dy := p.Y - q.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// NoFood marks a board with no free cell left for food.
var NoFood = Point{X: -1, Y: -1}

// MinLength is the shortest snake the engine will build.
const MinLength = 2

// Options configures a Game.
type Options struct {
	Width      int
	Height     int
	InitLength int
	// TickCap ends the episode after this many ticks. 0 disables it.
	TickCap int
	// StallWindow ends the episode after this many ticks without food. 0 disables it.
	StallWindow int
}

// Game represents the snake game environment
type Game struct {
	opts Options

	snake       []Point // head is at index 0
	dir         Direction
	food        Point
	score       int
	done        bool
	death       DeathReason
	tick        int
	ticksNoFood int

	rng *rand.Rand
}

// NewGame creates a new game instance and resets it.
func NewGame(opts Options, rng *rand.Rand) (*Game, error) {
	if opts.Width < 2 || opts.Height < 1 {
		return nil, fmt.Errorf("env: grid %dx%d too small", opts.Width, opts.Height)
	}
	if opts.TickCap < 0 || opts.StallWindow < 0 {
		return nil, fmt.Errorf("env: negative tick cap or stall window")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	// The body extends left of centre, so it can hold at most W/2+1 cells.
	if opts.InitLength < MinLength {
		opts.InitLength = MinLength
	}
	if maxLen := opts.Width/2 + 1; opts.InitLength > maxLen {
		opts.InitLength = maxLen
	}

	g := &Game{opts: opts, rng: rng}
	g.Reset()
	return g, nil
}

// Reseed replaces the food placement source; the next Reset becomes reproducible from seed.
func (g *Game) Reseed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// Width returns the grid width.
func (g *Game) Width() int { return g.opts.Width }

// Height returns the grid height.
func (g *Game) Height() int { return g.opts.Height }

// Options returns the (clamped) options the game runs with.
func (g *Game) Options() Options { return g.opts }

// Reset initializes the game to starting state
func (g *Game) Reset() State {
	g.score = 0
	g.done = false
	g.death = DeathNone
	g.tick = 0
	g.ticksNoFood = 0

	// Spawn snake in center, facing right
	centerX := g.opts.Width / 2
	centerY := g.opts.Height / 2
	g.dir = DirRight

	g.snake = make([]Point, g.opts.InitLength, g.opts.Width*g.opts.Height+1)
	for i := range g.snake {
		g.snake[i] = Point{X: centerX - i, Y: centerY}
	}

	g.spawnFood()
	if g.food == NoFood {
		g.done = true
	}
	return g.State()
}

// State returns a snapshot of the game. It never advances the simulation.
func (g *Game) State() State {
	return State{
		Snake:  append([]Point(nil), g.snake...),
		Food:   g.food,
		Dir:    g.dir,
		Score:  g.score,
		Done:   g.done,
		Death:  g.death,
		Tick:   g.tick,
		Width:  g.opts.Width,
		Height: g.opts.Height,
	}
}

// Step advances one tick using an absolute direction. DirNone or a direction
// opposite to the current heading keeps the current heading.
func (g *Game) Step(dir Direction) StepResult {
	if g.done {
		return StepResult{State: g.State()}
	}
	if dir >= DirUp && dir <= DirLeft && dir != g.dir.Opposite() {
		g.dir = dir
	}
	return g.advance()
}

// StepAction advances one tick using a relative action.
func (g *Game) StepAction(action Action) (StepResult, error) {
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	if g.done {
		return StepResult{State: g.State()}, nil
	}
	g.dir = action.Apply(g.dir)
	return g.advance(), nil
}

func (g *Game) advance() StepResult {
	g.tick++
	g.ticksNoFood++

	newHead := g.snake[0].Add(g.dir.Delta())

	if !g.inBounds(newHead) {
		return g.fail(DeathWall)
	}

	// The tail cell vacates this tick unless food is eaten, and food never
	// sits on the body, so the tail is always excluded.
	if hitsBody(g.snake, newHead) {
		return g.fail(DeathSelf)
	}

	ateFood := newHead == g.food
	g.snake = append(g.snake, Point{})
	copy(g.snake[1:], g.snake)
	g.snake[0] = newHead

	if ateFood {
		g.score++
		g.ticksNoFood = 0
		g.spawnFood()
		if g.food == NoFood {
			g.done = true
			return StepResult{State: g.State(), AteFood: true}
		}
	} else {
		g.snake = g.snake[:len(g.snake)-1]
	}

	if g.opts.StallWindow > 0 && g.ticksNoFood >= g.opts.StallWindow {
		return g.endWith(DeathStall, ateFood)
	}
	if g.opts.TickCap > 0 && g.tick >= g.opts.TickCap {
		return g.endWith(DeathTimeout, ateFood)
	}

	return StepResult{State: g.State(), AteFood: ateFood}
}

func (g *Game) fail(reason DeathReason) StepResult {
	return g.endWith(reason, false)
}

func (g *Game) endWith(reason DeathReason, ateFood bool) StepResult {
	g.done = true
	g.death = reason
	return StepResult{State: g.State(), AteFood: ateFood}
}

func (g *Game) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.opts.Width && p.Y >= 0 && p.Y < g.opts.Height
}

// spawnFood places food at a random empty cell, or NoFood if the board is full.
func (g *Game) spawnFood() {
	occupied := make(map[Point]bool, len(g.snake))
	for _, p := range g.snake {
		occupied[p] = true
	}

	empty := make([]Point, 0, g.opts.Width*g.opts.Height-len(g.snake))
	for y := 0; y < g.opts.Height; y++ {
		for x := 0; x < g.opts.Width; x++ {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				empty = append(empty, p)
			}
		}
	}

	if len(empty) == 0 {
		g.food = NoFood
		return
	}
	g.food = empty[g.rng.Intn(len(empty))]
}

// hitsBody checks p against every segment but the tail.
func hitsBody(snake []Point, p Point) bool {
	for i := 0; i < len(snake)-1; i++ {
		if snake[i] == p {
			return true
		}
	}
	return false
}

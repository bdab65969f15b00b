package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Preetham2702/AI-Snake-agent/internal/env"
)

// Display handles terminal rendering
type Display struct {
	width  int
	height int
}

// NewDisplay creates a new display
func NewDisplay(width, height int) *Display {
	return &Display{width: width, height: height}
}

// Render draws the game state to terminal. action < 0 hides the action column.
func (d *Display) Render(s env.State, action env.Action) {
	clearScreen()
	fmt.Print(d.Frame(s, action))
}

// Frame returns the board and status line as text.
func (d *Display) Frame(s env.State, action env.Action) string {
	grid := make([][]rune, d.height)
	for y := range grid {
		grid[y] = make([]rune, d.width)
		for x := range grid[y] {
			grid[y][x] = '·'
		}
	}

	if s.Food != env.NoFood && s.InBounds(s.Food) {
		grid[s.Food.Y][s.Food.X] = '●'
	}

	// Tail first so the head wins on overlap
	for i := len(s.Snake) - 1; i >= 0; i-- {
		p := s.Snake[i]
		if !s.InBounds(p) {
			continue
		}
		if i == 0 {
			grid[p.Y][p.X] = directionHead(s.Dir)
		} else {
			grid[p.Y][p.X] = '█'
		}
	}

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("──", d.width) + "┐\n")
	for y := 0; y < d.height; y++ {
		b.WriteString("│")
		for x := 0; x < d.width; x++ {
			b.WriteRune(' ')
			b.WriteRune(grid[y][x])
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("──", d.width) + "┘\n")

	actionDisplay := "---"
	if action.Valid() {
		actionDisplay = action.String()
	}
	fmt.Fprintf(&b, "  Tick: %3d | Score: %d | Length: %d | Action: %s\n",
		s.Tick, s.Score, len(s.Snake), actionDisplay)

	switch {
	case s.Won():
		b.WriteString("  BOARD FILLED\n")
	case s.Done:
		fmt.Fprintf(&b, "  DEAD: %s\n", s.Death)
	}
	return b.String()
}

func directionHead(dir env.Direction) rune {
	switch dir {
	case env.DirUp:
		return '▲'
	case env.DirRight:
		return '▶'
	case env.DirDown:
		return '▼'
	case env.DirLeft:
		return '◀'
	}
	return 'O'
}

func clearScreen() {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
}

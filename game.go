package main

import (
	"sync"
	"time"

	"github.com/bodul/anniversary/puzzle"
)

// GameSession is one device's run at a grid. The puzzle session underneath is
// single-threaded, so every access goes through mu.
type GameSession struct {
	ID        string
	GridID    string
	CreatedAt time.Time

	mu         sync.Mutex
	session    *puzzle.Session
	lastActive time.Time
}

// Snapshot is the renderable state of a game.
type Snapshot struct {
	ID        string       `json:"id"`
	GridID    string       `json:"grid_id"`
	State     [][]string   `json:"state"` // current letters [row][col]
	Marks     [][]string   `json:"marks"` // neutral, correct or incorrect; "" on black cells
	Nav       puzzle.State `json:"nav"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

// Move is the answer to an event: what to focus and the new state.
type Move struct {
	puzzle.Output
	Game Snapshot `json:"game"`
}

func newGameSession(id string, grid *Grid) *GameSession {
	now := time.Now()
	return &GameSession{
		ID:         id,
		GridID:     grid.ID,
		CreatedAt:  now,
		session:    puzzle.NewSession(grid.Layout()),
		lastActive: now,
	}
}

// Handle applies an event and returns the result with a fresh snapshot.
func (g *GameSession) Handle(ev puzzle.Event) Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()
	out := g.session.Handle(ev)
	return Move{Output: out, Game: g.snapshot()}
}

// Reset clears every letter.
func (g *GameSession) Reset() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()
	g.session.Reset()
	return g.snapshot()
}

// LastActive reports when an event or reset last reached the game.
func (g *GameSession) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// Snapshot returns a copy of the current game state.
func (g *GameSession) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// HintRequest describes a word for the hint generator: its clue, the letters
// written so far and the answer the hint must not give away.
func (g *GameSession) HintRequest(number int, dir puzzle.Direction) (HintRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wi, ok := g.session.Grid.Find(number, dir)
	if !ok {
		return HintRequest{}, false
	}
	w, _ := g.session.Grid.Word(wi)
	return HintRequest{
		Clue:    w.Clue,
		Pattern: g.session.Pattern(wi),
		Answer:  w.Answer,
	}, true
}

func (g *GameSession) snapshot() Snapshot {
	grid := g.session.Grid
	s := Snapshot{
		ID:        g.ID,
		GridID:    g.GridID,
		State:     make([][]string, grid.Rows()),
		Marks:     make([][]string, grid.Rows()),
		Nav:       g.session.State,
		Message:   g.session.Message,
		CreatedAt: g.CreatedAt,
	}
	for r := range grid.Rows() {
		s.State[r] = make([]string, grid.Cols())
		s.Marks[r] = make([]string, grid.Cols())
		for c := range grid.Cols() {
			e := g.session.Board.Entry(puzzle.Pos{Row: r, Col: c})
			if e == nil {
				continue
			}
			if !e.Empty() {
				s.State[r][c] = string(e.Value)
			}
			s.Marks[r][c] = e.Mark.String()
		}
	}
	return s
}

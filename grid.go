package main

import (
	"log/slog"
	"time"

	"github.com/bodul/anniversary/puzzle"
)

// Cell is a square of the grid as sent to the browser. Expected letters stay
// on the server.
type Cell struct {
	Black  bool `json:"black"`
	Number int  `json:"number,omitempty"`
}

// Grid is a crossword layout ready to render: squares, numbering and clues.
type Grid struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Cells     [][]Cell      `json:"cells"`
	Across    []puzzle.Clue `json:"across"`
	Down      []puzzle.Clue `json:"down"`
	CreatedAt time.Time     `json:"created_at"`

	layout *puzzle.Grid
}

// newGrid lays out a puzzle definition and derives its view.
func newGrid(def *puzzle.Definition) *Grid {
	layout := def.Grid()
	g := &Grid{
		Title:  def.Title,
		Rows:   layout.Rows(),
		Cols:   layout.Cols(),
		Cells:  make([][]Cell, layout.Rows()),
		Across: layout.Clues(puzzle.Across),
		Down:   layout.Clues(puzzle.Down),
		layout: layout,
	}
	for r := range g.Rows {
		g.Cells[r] = make([]Cell, g.Cols)
		for c := range g.Cols {
			cell, _ := layout.Cell(puzzle.Pos{Row: r, Col: c})
			g.Cells[r][c] = Cell{Black: cell.Blocked(), Number: cell.Number()}
		}
	}
	return g
}

// Layout returns the engine grid behind the view.
func (g *Grid) Layout() *puzzle.Grid { return g.layout }

// warnConflicts logs every intersection where the puzzle's words disagree.
// The first word listed keeps the square.
func (g *Grid) warnConflicts(logger *slog.Logger) {
	for _, c := range g.layout.Conflicts() {
		logger.Warn("crossword words disagree on a shared square",
			"grid", g.ID, "row", c.Row, "col", c.Col,
			"kept", string(c.Kept), "dropped", string(c.Dropped), "word", c.Word)
	}
}

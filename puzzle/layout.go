// Package puzzle is the crossword engine: it lays hand-authored words out on
// a grid, moves the cursor in response to focus, input and key events, and
// checks the board against the expected letters.
package puzzle

import (
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placement is a hand-authored word: its answer, clue and where it sits.
// Number is the clue label and is not unique across directions.
type Placement struct {
	Number    int       `json:"number"`
	Answer    string    `json:"answer"`
	Clue      string    `json:"clue"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
}

// Pos identifies a cell by row and column.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Next returns the position one step along d.
func (p Pos) Next(d Direction) Pos {
	dr, dc := d.delta()
	return Pos{p.Row + dr, p.Col + dc}
}

// Prev returns the position one step against d.
func (p Pos) Prev(d Direction) Pos {
	dr, dc := d.delta()
	return Pos{p.Row - dr, p.Col - dc}
}

// Cell is one square of the layout. A cell with no letter is blocked.
type Cell struct {
	Pos
	Letter rune  // expected letter, 0 when blocked
	Starts []int // clue numbers of the words starting here
}

// Blocked reports whether no word passes through the cell.
func (c Cell) Blocked() bool { return c.Letter == 0 }

// Number is the clue number displayed in the cell: the smallest of Starts,
// or 0 when no word starts here.
func (c Cell) Number() int {
	if len(c.Starts) == 0 {
		return 0
	}
	return slices.Min(c.Starts)
}

// Word is a placement together with the lettered cells it covers, in order.
type Word struct {
	Index int
	Placement
	Cells []Pos
}

// Conflict records an intersection where a later placement expected a
// different letter than the one already laid down.
type Conflict struct {
	Pos
	Kept    rune
	Dropped rune
	Word    int // index of the placement whose letter was dropped
}

// Grid is the immutable layout built from a list of placements, with the
// word index used for navigation.
type Grid struct {
	rows, cols int
	cells      [][]Cell
	words      []Word
	byDir      [2][]int   // word indices per direction, authoring order
	member     [][][2]int // word index per direction for each cell, -1 if none
	conflicts  []Conflict
}

// Build lays the placements out on a rows×cols grid. Letters falling outside
// the grid are skipped. When two placements disagree on a shared cell the one
// listed first wins and the disagreement is recorded in Conflicts.
func Build(placements []Placement, rows, cols int) *Grid {
	rows, cols = max(rows, 0), max(cols, 0)
	g := &Grid{
		rows:   rows,
		cols:   cols,
		cells:  make([][]Cell, rows),
		member: make([][][2]int, rows),
		words:  make([]Word, 0, len(placements)),
	}
	for r := range rows {
		g.cells[r] = make([]Cell, cols)
		g.member[r] = make([][2]int, cols)
		for c := range cols {
			g.cells[r][c] = Cell{Pos: Pos{r, c}}
			g.member[r][c] = [2]int{-1, -1}
		}
	}

	letters := make([][]rune, len(placements))
	for wi, p := range placements {
		letters[wi] = []rune(upper(p.Answer))
		dir := axis(p.Direction)
		pos := Pos{p.Row, p.Col}
		for i, l := range letters[wi] {
			if g.InBounds(pos) {
				cell := &g.cells[pos.Row][pos.Col]
				switch {
				case cell.Letter == 0:
					cell.Letter = l
				case cell.Letter != l:
					g.conflicts = append(g.conflicts, Conflict{Pos: pos, Kept: cell.Letter, Dropped: l, Word: wi})
				}
				if i == 0 {
					cell.Starts = append(cell.Starts, p.Number)
				}
			}
			pos = pos.Next(dir)
		}
	}

	for wi, p := range placements {
		dir := axis(p.Direction)
		p.Direction = dir
		w := Word{Index: wi, Placement: p}
		pos := Pos{p.Row, p.Col}
		for range letters[wi] {
			if g.Lettered(pos) {
				w.Cells = append(w.Cells, pos)
				g.member[pos.Row][pos.Col][dir] = wi
			}
			pos = pos.Next(dir)
		}
		g.words = append(g.words, w)
		g.byDir[dir] = append(g.byDir[dir], wi)
	}
	return g
}

func axis(d Direction) Direction {
	if d == Down {
		return Down
	}
	return Across
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// Cell returns the cell at p. ok is false when p is off the grid.
func (g *Grid) Cell(p Pos) (Cell, bool) {
	if !g.InBounds(p) {
		return Cell{}, false
	}
	return g.cells[p.Row][p.Col], true
}

// Lettered reports whether p is on the grid and part of at least one word.
func (g *Grid) Lettered(p Pos) bool {
	return g.InBounds(p) && g.cells[p.Row][p.Col].Letter != 0
}

// Positions returns every lettered cell in reading order.
func (g *Grid) Positions() []Pos {
	var out []Pos
	for r := range g.rows {
		for c := range g.cols {
			if g.cells[r][c].Letter != 0 {
				out = append(out, Pos{r, c})
			}
		}
	}
	return out
}

// Words returns all words in authoring order.
func (g *Grid) Words() []Word { return g.words }

// Word returns the word with the given index.
func (g *Grid) Word(i int) (Word, bool) {
	if i < 0 || i >= len(g.words) {
		return Word{}, false
	}
	return g.words[i], true
}

// WordsIn returns the indices of the words running in d, in authoring order.
func (g *Grid) WordsIn(d Direction) []int { return g.byDir[axis(d)] }

// WordAt returns the index of the word running in d through p.
func (g *Grid) WordAt(p Pos, d Direction) (int, bool) {
	if !g.Lettered(p) {
		return -1, false
	}
	wi := g.member[p.Row][p.Col][axis(d)]
	return wi, wi >= 0
}

// Conflicts returns the intersections where placements disagreed.
func (g *Grid) Conflicts() []Conflict { return g.conflicts }

package puzzle

import "unicode"

// Mark is the validation state displayed on a cell.
type Mark int

const (
	Neutral Mark = iota
	Correct
	Incorrect
)

func (m Mark) String() string {
	switch m {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	}
	return "neutral"
}

func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Entry is what the player has written in a lettered cell.
type Entry struct {
	Pos
	Value rune // 0 when empty
	Mark  Mark
}

// Empty reports whether nothing is written in the cell.
func (e Entry) Empty() bool { return e.Value == 0 }

// Board holds one entry per lettered cell of a grid. Blocked cells have none.
type Board struct {
	entries map[Pos]*Entry
}

// NewBoard returns an empty board for g.
func NewBoard(g *Grid) *Board {
	b := &Board{entries: make(map[Pos]*Entry)}
	for _, p := range g.Positions() {
		b.entries[p] = &Entry{Pos: p}
	}
	return b
}

// Entry returns the entry at p, or nil if p is blocked or off the grid.
func (b *Board) Entry(p Pos) *Entry {
	return b.entries[p]
}

// Value returns the letter written at p, 0 if none.
func (b *Board) Value(p Pos) rune {
	if e := b.entries[p]; e != nil {
		return e.Value
	}
	return 0
}

// Set writes v at p and clears the cell's mark. It reports false when p has
// no entry.
func (b *Board) Set(p Pos, v rune) bool {
	e := b.entries[p]
	if e == nil {
		return false
	}
	e.Value = v
	e.Mark = Neutral
	return true
}

// Clear empties the cell at p.
func (b *Board) Clear(p Pos) bool { return b.Set(p, 0) }

// Reset empties every cell.
func (b *Board) Reset() {
	for _, e := range b.entries {
		e.Value = 0
		e.Mark = Neutral
	}
}

// Len returns the number of lettered cells.
func (b *Board) Len() int { return len(b.entries) }

// normalize reduces raw input text to a single uppercase letter: the last
// letter typed. It returns 0 when the text holds no letter.
func normalize(raw string) rune {
	rs := []rune(upper(raw))
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsLetter(rs[i]) {
			return rs[i]
		}
	}
	return 0
}

package puzzle

import "fmt"

// Outcome is the overall result of checking the board.
type Outcome int

const (
	// Unchecked is the zero value, used when an event did not run a check.
	Unchecked Outcome = iota
	Solved
	Incomplete
	Wrong
)

// Status messages shown to the player.
const (
	MsgKeepGoing  = "Keep going!"
	MsgHorizontal = "Typing horizontally."
	MsgVertical   = "Typing vertically."
	MsgSolved     = "WOOOOOO you solved it!"
	MsgIncomplete = "Some squares are still empty — try again!"
	MsgIncorrect  = "Close! The red squares need a tweak."
)

func (o Outcome) String() string {
	switch o {
	case Solved:
		return "solved"
	case Incomplete:
		return "incomplete"
	case Wrong:
		return "incorrect"
	}
	return "unchecked"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{Unchecked, Solved, Incomplete, Wrong} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Message returns the status line for the outcome.
func (o Outcome) Message() string {
	switch o {
	case Solved:
		return MsgSolved
	case Incomplete:
		return MsgIncomplete
	case Wrong:
		return MsgIncorrect
	}
	return ""
}

// Check compares every entry on b with the expected letters of g and marks
// each cell. Entered values are left untouched, so repeated calls agree.
func Check(g *Grid, b *Board) Outcome {
	filled, right := true, true
	for _, p := range g.Positions() {
		e := b.Entry(p)
		if e == nil {
			continue
		}
		cell, _ := g.Cell(p)
		switch v := normalize(string(e.Value)); {
		case v == 0:
			e.Mark = Neutral
			filled = false
		case v == cell.Letter:
			e.Mark = Correct
		default:
			e.Mark = Incorrect
			right = false
		}
	}
	switch {
	case !filled:
		return Incomplete
	case !right:
		return Wrong
	}
	return Solved
}

package puzzle

import "strings"

// Key is a navigation key understood by the session.
type Key int

const (
	KeyNone Key = iota
	KeyBackspace
	KeySpace
	KeyTab
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

var keyNames = map[string]Key{
	"backspace":  KeyBackspace,
	" ":          KeySpace,
	"space":      KeySpace,
	"tab":        KeyTab,
	"enter":      KeyEnter,
	"arrowleft":  KeyLeft,
	"arrowright": KeyRight,
	"arrowup":    KeyUp,
	"arrowdown":  KeyDown,
	"left":       KeyLeft,
	"right":      KeyRight,
	"up":         KeyUp,
	"down":       KeyDown,
}

// ParseKey maps a browser or terminal key name to a Key. Unknown names give
// KeyNone.
func ParseKey(name string) Key {
	if name == " " {
		return KeySpace
	}
	return keyNames[strings.ToLower(name)]
}

// Event is an input delivered to a Session.
type Event interface {
	event()
}

// FocusEvent reports that a cell received input focus.
type FocusEvent struct{ Cell Pos }

// InputEvent carries text typed into a cell. Deletion is set when the host
// reports the edit as a delete rather than an insertion.
//
// Only letters are stored: the cell keeps the last letter of Text in upper
// case. Digits and punctuation are dropped, so text without a letter clears
// the cell. Answers must therefore be made of letters.
type InputEvent struct {
	Cell     Pos
	Text     string
	Deletion bool
}

// KeyEvent is a navigation key pressed while a cell had focus.
type KeyEvent struct {
	Cell Pos
	Key  Key
}

// CheckEvent asks for the board to be validated.
type CheckEvent struct{}

func (FocusEvent) event() {}
func (InputEvent) event() {}
func (KeyEvent) event()   {}
func (CheckEvent) event() {}

// State is the navigation state of a puzzle instance.
type State struct {
	Direction Direction `json:"direction"`
	Active    Pos       `json:"active"`
	HasActive bool      `json:"has_active"`
}

// Output is what the host should render after an event.
type Output struct {
	Focus    Pos     `json:"focus"`
	HasFocus bool    `json:"has_focus"`
	Message  string  `json:"message,omitempty"` // empty when unchanged
	Outcome  Outcome `json:"outcome"`
}

// Session is a single player's puzzle: the layout, what has been written and
// where the cursor is. It is not safe for concurrent use.
type Session struct {
	Grid    *Grid
	Board   *Board
	State   State
	Message string
}

// NewSession starts an empty puzzle on g, typing across with nothing focused.
func NewSession(g *Grid) *Session {
	return &Session{
		Grid:  g,
		Board: NewBoard(g),
		State: State{Direction: Across},
	}
}

// Handle applies one event and reports where focus should go and what to say.
// Events naming a blocked or off-grid cell do nothing.
func (s *Session) Handle(ev Event) Output {
	var out Output
	switch e := ev.(type) {
	case FocusEvent:
		s.focus(e.Cell)
	case InputEvent:
		if !s.Grid.Lettered(e.Cell) {
			break
		}
		out.Message = s.say(MsgKeepGoing)
		s.enter(e.Cell, e.Text, e.Deletion)
	case KeyEvent:
		if !s.Grid.Lettered(e.Cell) {
			break
		}
		out.Message = s.key(e.Cell, e.Key)
	case CheckEvent:
		out.Outcome = Check(s.Grid, s.Board)
		out.Message = s.say(out.Outcome.Message())
	}
	out.Focus, out.HasFocus = s.State.Active, s.State.HasActive
	return out
}

func (s *Session) say(msg string) string {
	s.Message = msg
	return msg
}

// focus makes p the active cell. A cell in a single word sets the typing
// direction to that word's; intersections keep the current direction.
func (s *Session) focus(p Pos) bool {
	if !s.Grid.Lettered(p) {
		return false
	}
	s.State.Active, s.State.HasActive = p, true
	_, across := s.Grid.WordAt(p, Across)
	_, down := s.Grid.WordAt(p, Down)
	switch {
	case across && !down:
		s.State.Direction = Across
	case down && !across:
		s.State.Direction = Down
	}
	return true
}

func (s *Session) enter(p Pos, text string, deletion bool) {
	v := normalize(text)
	s.Board.Set(p, v)
	if !deletion && v != 0 {
		s.advance(p)
	}
}

// advance moves focus to the first empty lettered cell after p along the
// current direction, stepping over blocked and filled cells. Focus stays put
// when the edge of the grid comes first.
func (s *Session) advance(p Pos) {
	for next := p.Next(s.State.Direction); s.Grid.InBounds(next); next = next.Next(s.State.Direction) {
		if s.Grid.Lettered(next) && s.Board.Value(next) == 0 {
			s.focus(next)
			return
		}
	}
}

func (s *Session) key(p Pos, k Key) string {
	switch k {
	case KeyBackspace:
		s.backspace(p)
	case KeySpace:
		return s.toggle()
	case KeyTab, KeyEnter:
		s.jump(p)
	case KeyLeft:
		s.arrow(p, Across, -1)
	case KeyRight:
		s.arrow(p, Across, 1)
	case KeyUp:
		s.arrow(p, Down, -1)
	case KeyDown:
		s.arrow(p, Down, 1)
	}
	return ""
}

func (s *Session) toggle() string {
	s.State.Direction = s.State.Direction.Toggle()
	if !s.State.HasActive {
		return ""
	}
	if s.State.Direction == Across {
		return s.say(MsgHorizontal)
	}
	return s.say(MsgVertical)
}

// backspace clears p if it holds a letter. Otherwise it steps back one cell
// along the current direction and clears that one, unless the step would
// leave the grid or land on a blocked cell.
func (s *Session) backspace(p Pos) {
	if s.Board.Value(p) != 0 {
		s.Board.Clear(p)
		return
	}
	prev := p.Prev(s.State.Direction)
	if !s.Grid.Lettered(prev) {
		return
	}
	s.focus(prev)
	if s.Board.Value(prev) != 0 {
		s.Board.Clear(prev)
	}
}

// arrow moves exactly one cell; a blocked or off-grid destination is a no-op.
func (s *Session) arrow(p Pos, d Direction, step int) {
	s.State.Direction = d
	next := p.Next(d)
	if step < 0 {
		next = p.Prev(d)
	}
	s.focus(next)
}

// jump focuses the next word of the current direction, wrapping around. The
// first empty cell of that word is preferred over its first cell.
func (s *Session) jump(p Pos) {
	order := s.Grid.WordsIn(s.State.Direction)
	if len(order) == 0 {
		return
	}
	target := order[0]
	if wi, ok := s.Grid.WordAt(p, s.State.Direction); ok {
		for i, idx := range order {
			if idx == wi {
				target = order[(i+1)%len(order)]
				break
			}
		}
	}
	w, _ := s.Grid.Word(target)
	if len(w.Cells) == 0 {
		return
	}
	dest := w.Cells[0]
	for _, c := range w.Cells {
		if s.Board.Value(c) == 0 {
			dest = c
			break
		}
	}
	s.focus(dest)
}

// Reset clears every entry and the status message. Navigation state is kept.
func (s *Session) Reset() {
	s.Board.Reset()
	s.Message = ""
}

// Pattern renders word wi as written so far, with '?' for empty cells.
func (s *Session) Pattern(wi int) string {
	w, ok := s.Grid.Word(wi)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, c := range w.Cells {
		if v := s.Board.Value(c); v != 0 {
			sb.WriteRune(v)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

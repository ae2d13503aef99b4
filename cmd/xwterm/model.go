package main

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bodul/anniversary/puzzle"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0607E"))
	cellStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A2A30"))
	blockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	wordStyle      = cellStyle.Background(lipgloss.Color("#5C3A46"))
	activeStyle    = cellStyle.Background(lipgloss.Color("#C89A3A")).Foreground(lipgloss.Color("#000000")).Bold(true)
	correctStyle   = cellStyle.Foreground(lipgloss.Color("#5FD787"))
	incorrectStyle = cellStyle.Foreground(lipgloss.Color("#FF4D4F"))
	clueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	messageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Italic(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	boardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
)

const help = "type letters • space toggle direction • tab next word • arrows move • ctrl+k check • ctrl+r reset • esc quit"

// model drives a puzzle session from terminal key presses.
type model struct {
	title   string
	session *puzzle.Session
}

func newModel(def *puzzle.Definition) *model {
	m := &model{title: def.Title, session: puzzle.NewSession(def.Grid())}
	if words := m.session.Grid.WordsIn(puzzle.Across); len(words) > 0 {
		w, _ := m.session.Grid.Word(words[0])
		if len(w.Cells) > 0 {
			m.session.Handle(puzzle.FocusEvent{Cell: w.Cells[0]})
		}
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return nil
}

var navKeys = map[tea.KeyType]puzzle.Key{
	tea.KeyBackspace: puzzle.KeyBackspace,
	tea.KeySpace:     puzzle.KeySpace,
	tea.KeyTab:       puzzle.KeyTab,
	tea.KeyEnter:     puzzle.KeyEnter,
	tea.KeyLeft:      puzzle.KeyLeft,
	tea.KeyRight:     puzzle.KeyRight,
	tea.KeyUp:        puzzle.KeyUp,
	tea.KeyDown:      puzzle.KeyDown,
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	active := m.session.State.Active
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlK:
		out := m.session.Handle(puzzle.CheckEvent{})
		slog.Debug("checked board", "outcome", out.Outcome)
	case tea.KeyCtrlR:
		m.session.Reset()
	case tea.KeyRunes:
		if len(key.Runes) == 0 || !unicode.IsLetter(key.Runes[len(key.Runes)-1]) {
			return m, nil
		}
		m.session.Handle(puzzle.InputEvent{Cell: active, Text: string(key.Runes)})
	default:
		if k, ok := navKeys[key.Type]; ok {
			m.session.Handle(puzzle.KeyEvent{Cell: active, Key: k})
		}
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(boardStyle.Render(m.board()))
	b.WriteString("\n")
	if clue := m.clue(); clue != "" {
		b.WriteString(clueStyle.Render(clue))
		b.WriteString("\n")
	}
	b.WriteString(messageStyle.Render(m.session.Message))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

// currentWord is the word under the cursor in the typing direction, falling
// back to the other direction.
func (m *model) currentWord() (puzzle.Word, bool) {
	st := m.session.State
	if !st.HasActive {
		return puzzle.Word{}, false
	}
	for _, d := range []puzzle.Direction{st.Direction, st.Direction.Toggle()} {
		if wi, ok := m.session.Grid.WordAt(st.Active, d); ok {
			return m.session.Grid.Word(wi)
		}
	}
	return puzzle.Word{}, false
}

func (m *model) board() string {
	g := m.session.Grid
	inWord := map[puzzle.Pos]bool{}
	if w, ok := m.currentWord(); ok {
		for _, p := range w.Cells {
			inWord[p] = true
		}
	}

	rows := make([]string, g.Rows())
	for r := range g.Rows() {
		var line strings.Builder
		for c := range g.Cols() {
			p := puzzle.Pos{Row: r, Col: c}
			e := m.session.Board.Entry(p)
			if e == nil {
				line.WriteString(blockedStyle.Render(" · "))
				continue
			}
			text := " _ "
			if !e.Empty() {
				text = " " + string(e.Value) + " "
			}
			line.WriteString(m.cellStyle(e, inWord[p]).Render(text))
		}
		rows[r] = line.String()
	}
	return strings.Join(rows, "\n")
}

func (m *model) cellStyle(e *puzzle.Entry, inWord bool) lipgloss.Style {
	st := m.session.State
	switch {
	case st.HasActive && st.Active == e.Pos:
		return activeStyle
	case e.Mark == puzzle.Correct:
		return correctStyle
	case e.Mark == puzzle.Incorrect:
		return incorrectStyle
	case inWord:
		return wordStyle
	}
	return cellStyle
}

func (m *model) clue() string {
	w, ok := m.currentWord()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d %s: %s (%d)", w.Number, w.Direction, w.Clue, len(w.Cells))
}

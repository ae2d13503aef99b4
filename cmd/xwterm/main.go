// Command xwterm plays the anniversary crossword in a terminal.
//
// Usage:
//
//	xwterm [-log file] [puzzle.hcl]
//
// Without an argument the built-in puzzle is used.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bodul/anniversary/puzzle"
)

func main() {
	logFile := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	if *logFile != "" {
		f, err := tea.LogToFile(*logFile, "xwterm")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	def := puzzle.Default()
	if path := flag.Arg(0); path != "" {
		var err error
		if def, err = puzzle.LoadFile(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	m := newModel(def)
	for _, c := range m.session.Grid.Conflicts() {
		slog.Warn("crossword words disagree on a shared square",
			"row", c.Row, "col", c.Col, "kept", string(c.Kept), "dropped", string(c.Dropped))
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

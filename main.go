package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/okand/fastr/internal/store"
	"github.com/okand/fastr/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// A corrupt saved state is not fatal. Start fresh rather than refuse to run.
	state, _, err := s.LoadState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load saved state: %v\n", err)
		state = store.AppState{}
	}

	app := tui.NewApp(s, state)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

package tui

import (
	"fmt"
	"time"

	"github.com/okand/fastr/internal/fasting"
	"github.com/okand/fastr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewHistory
	viewStats
	viewSettings
)

var viewNames = []string{"Timer", "History", "Stats", "Settings"}

// --- Messages ---

// stateChanged signals that the tracker mutated and the snapshot must be
// re-persisted.
type stateChangedMsg struct{}

type fastStartedMsg struct{}

type fastEndedMsg struct {
	session fasting.Session
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct{}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatGoal(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// snapshot converts the tracker into the persisted form.
func snapshot(tr *fasting.Tracker) store.AppState {
	state := store.AppState{
		Fasting:     tr.Fasting(),
		Mood:        tr.Mood(),
		GoalSeconds: tr.Goal(),
		Sessions:    tr.Sessions(),
	}
	if start, ok := tr.StartTime(); ok {
		state.StartTime = &start
	}
	return state
}

func restore(tr *fasting.Tracker, state store.AppState) {
	tr.Restore(state.Fasting, state.StartTime, state.Mood, state.GoalSeconds, state.Sessions)
}

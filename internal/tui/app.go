package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/okand/fastr/internal/export"
	"github.com/okand/fastr/internal/fasting"
	"github.com/okand/fastr/internal/notify"
	"github.com/okand/fastr/internal/store"
)

// App is the root model. It owns the tracker, the milestone scheduler and
// persistence; sub-models mutate the tracker and raise stateChangedMsg so
// every change is written through in one place.
type App struct {
	store    *store.Store
	tracker  *fasting.Tracker
	notifier *uiNotifier
	sched    *notify.Scheduler

	activeView viewState
	width      int
	height     int

	timer    timerModel
	history  historyModel
	stats    statsModel
	settings settingsModel

	help     help.Model
	showHelp bool

	exportPicking bool
	exportCursor  int

	status      string
	statusError bool
}

func NewApp(s *store.Store, state store.AppState) *App {
	tracker := fasting.NewTracker()
	restore(tracker, state)

	enabled := true
	if v, err := s.GetSetting("notifications"); err == nil && v == "off" {
		enabled = false
	}
	notifier := newUINotifier(enabled)
	sched := notify.NewScheduler(notifier)

	app := &App{
		store:    s,
		tracker:  tracker,
		notifier: notifier,
		sched:    sched,
		help:     help.New(),
	}
	app.timer = newTimerModel(tracker, sched, s)
	app.history = newHistoryModel(tracker)
	app.stats = newStatsModel(tracker)
	app.settings = newSettingsModel(s)
	return app
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) Init() tea.Cmd {
	return tickCmd()
}

// formActive reports whether any sub-model currently captures all input.
func (a *App) formActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.formActive || a.timer.editPicking
	case viewHistory:
		return a.history.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentH := msg.Height - 4
		a.timer.setSize(msg.Width, contentH)
		a.history.setSize(msg.Width, contentH)
		a.stats.setSize(msg.Width, contentH)
		a.settings.setSize(msg.Width, contentH)
		return a, nil

	case tickMsg:
		now := time.Time(msg)
		a.runScheduler(now)
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case stateChangedMsg:
		if err := a.store.SaveState(snapshot(a.tracker)); err != nil {
			a.status = fmt.Sprintf("Error: failed to save: %v", err)
			a.statusError = true
		}
		return a, nil

	case fastStartedMsg:
		a.status = "Fast started"
		a.statusError = false
		a.runScheduler(time.Now())
		return a, nil

	case fastEndedMsg:
		a.runScheduler(time.Now())
		a.status = a.endSummary(msg.session)
		if v, err := a.store.GetSetting("mood_prompt"); (err != nil || v != "off") && msg.session.Mood == "" {
			a.activeView = viewTimer
			a.status += "  ·  how are you feeling?"
		}
		a.statusError = false
		return a, nil

	case settingsSavedMsg:
		a.notifier.enabled = true
		if v, err := a.store.GetSetting("notifications"); err == nil && v == "off" {
			a.notifier.enabled = false
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if !a.formActive() {
			switch {
			case key.Matches(msg, keys.Quit):
				// Pending platform notifications do not outlive the program.
				a.sched.Tick(time.Now(), false, time.Time{}, 0, 0)
				return a, tea.Quit
			case key.Matches(msg, keys.Help):
				a.showHelp = !a.showHelp
				a.help.ShowAll = a.showHelp
				return a, nil
			case key.Matches(msg, keys.Tab1):
				a.activeView = viewTimer
				return a, nil
			case key.Matches(msg, keys.Tab2):
				a.activeView = viewHistory
				return a, nil
			case key.Matches(msg, keys.Tab3):
				a.activeView = viewStats
				return a, nil
			case key.Matches(msg, keys.Tab4):
				a.activeView = viewSettings
				return a, nil
			case key.Matches(msg, keys.Tab):
				a.activeView = (a.activeView + 1) % viewState(len(viewNames))
				return a, nil
			case key.Matches(msg, keys.Export):
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		}
	}

	return a.updateActiveView(msg)
}

func (a *App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// runScheduler feeds the current tracker state to the milestone scheduler and
// surfaces any notifications that came due as the status line.
func (a *App) runScheduler(now time.Time) {
	start, _ := a.tracker.StartTime()
	a.sched.Tick(now, a.tracker.Fasting(), start, a.tracker.Goal(),
		int64(a.tracker.Elapsed(now).Seconds()))
	for _, toast := range a.notifier.flush(now) {
		a.status = toast
		a.statusError = false
	}
}

func (a *App) endSummary(s fasting.Session) string {
	dur := formatDuration(s.Duration())
	switch {
	case s.HasGoal() && s.MetGoal():
		return fmt.Sprintf("Fast complete: %s, goal met 🎉", dur)
	case s.HasGoal():
		return fmt.Sprintf("Fast ended at %s of %s", dur, formatGoal(s.GoalSeconds))
	default:
		return "Fast ended at " + dur
	}
}

func (a *App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a *App) doExport(format int) tea.Cmd {
	sessions := a.tracker.Sessions()
	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("fastr-export-%s.csv", dateStr))
			if err := export.ToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("fastr-export-%s.json", dateStr))
			if err := export.ToJSON(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

func (a *App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderTabs()

	if a.exportPicking {
		return lipgloss.JoinVertical(lipgloss.Left, header, a.renderExportPicker(), a.renderFooter())
	}

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewHistory:
		content = a.history.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
}

func (a *App) renderFooter() string {
	helpView := a.help.View(keys)
	if a.showHelp {
		return footerStyle.Render(helpView)
	}
	status := a.status
	if a.statusError {
		status = errorStyle.Render(status)
	}
	if status == "" {
		return footerStyle.Render(helpView)
	}
	return footerStyle.Render(status + "   " + helpView)
}

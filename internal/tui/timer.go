package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okand/fastr/internal/fasting"
	"github.com/okand/fastr/internal/notify"
	"github.com/okand/fastr/internal/store"
)

const timeLayout = "2006-01-02 15:04"

// parseLocalTime parses a user-entered wall-clock time in the local zone.
func parseLocalTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, errors.New("invalid date/time, use YYYY-MM-DD HH:MM")
	}
	return t, nil
}

func parseGoalHours(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil // no goal
	}
	hours, err := strconv.ParseFloat(s, 64)
	if err != nil || hours < 0 {
		return 0, errors.New("enter hours as a non-negative number")
	}
	return int64(hours * 3600), nil
}

type timerModel struct {
	tracker *fasting.Tracker
	sched   *notify.Scheduler
	store   *store.Store
	width   int
	height  int
	now     time.Time

	moodCursor int

	// Edit-target picker (start or end of the running fast)
	editPicking bool
	editCursor  int

	formActive bool
	form       *huh.Form
	formKind   string // "start", "edit_start", "edit_end"

	// Form values as pointers (survive value copies)
	goalHours *string
	editTime  *string
}

func newTimerModel(tr *fasting.Tracker, sched *notify.Scheduler, s *store.Store) timerModel {
	goal, edit := "", ""
	return timerModel{
		tracker:   tr,
		sched:     sched,
		store:     s,
		now:       time.Now(),
		goalHours: &goal,
		editTime:  &edit,
	}
}

func (m *timerModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, nil

	case tea.KeyMsg:
		if m.editPicking {
			return m.updateEditPicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if m.tracker.Fasting() {
				return m, nil
			}
			return m.showStartForm()

		case key.Matches(msg, keys.End):
			if !m.tracker.Fasting() {
				return m, nil
			}
			session, err := m.tracker.End(time.Now())
			if err != nil {
				return m, errStatus(err)
			}
			return m, tea.Batch(
				func() tea.Msg { return stateChangedMsg{} },
				func() tea.Msg { return fastEndedMsg{session: session} },
			)

		case key.Matches(msg, keys.Edit):
			if !m.tracker.Fasting() {
				return m, nil
			}
			m.editPicking = true
			m.editCursor = 0
			return m, nil

		case key.Matches(msg, keys.Left):
			if m.moodCursor > 0 {
				m.moodCursor--
			}
			return m, nil

		case key.Matches(msg, keys.Right):
			if m.moodCursor < len(fasting.Moods)-1 {
				m.moodCursor++
			}
			return m, nil

		case key.Matches(msg, keys.Enter):
			mood := fasting.Moods[m.moodCursor]
			m.tracker.SelectMood(mood.Label)
			return m, tea.Batch(
				func() tea.Msg { return stateChangedMsg{} },
				func() tea.Msg { return statusMsg{text: "Feeling " + mood.Label + " " + mood.Emoji} },
			)
		}
	}
	return m, nil
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

// --- Start form ---

func (m timerModel) showStartForm() (timerModel, tea.Cmd) {
	*m.goalHours = m.defaultGoalHours()

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal (hours)").
				Description("Leave empty for no goal").
				Validate(func(s string) error {
					_, err := parseGoalHours(s)
					return err
				}).
				Value(m.goalHours),
		).Title("Start fasting"),
	).WithShowHelp(true).WithShowErrors(true)
	m.formKind = "start"
	m.formActive = true
	return m, m.form.Init()
}

func (m timerModel) defaultGoalHours() string {
	v, err := m.store.GetSetting("default_goal")
	if err != nil {
		return "16"
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return "16"
	}
	return strconv.FormatFloat(float64(secs)/3600, 'f', -1, 64)
}

// --- Edit current fast ---

func (m timerModel) updateEditPicker(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.editCursor > 0 {
			m.editCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.editCursor < 1 {
			m.editCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.editPicking = false
		if m.editCursor == 0 {
			return m.showEditStartForm()
		}
		return m.showEditEndForm()
	case key.Matches(msg, keys.Back):
		m.editPicking = false
	}
	return m, nil
}

func (m timerModel) showEditStartForm() (timerModel, tea.Cmd) {
	start, _ := m.tracker.StartTime()
	*m.editTime = start.Local().Format(timeLayout)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fast started at").
				Description("YYYY-MM-DD HH:MM, local time").
				Validate(func(s string) error {
					t, err := parseLocalTime(s)
					if err != nil {
						return err
					}
					if t.After(time.Now()) {
						return errors.New("start time cannot be in the future")
					}
					return nil
				}).
				Value(m.editTime),
		).Title("Edit start time"),
	).WithShowHelp(true).WithShowErrors(true)
	m.formKind = "edit_start"
	m.formActive = true
	return m, m.form.Init()
}

func (m timerModel) showEditEndForm() (timerModel, tea.Cmd) {
	start, _ := m.tracker.StartTime()
	target := start.Add(time.Duration(m.tracker.Goal()) * time.Second)
	if m.tracker.Goal() == 0 {
		target = time.Now()
	}
	*m.editTime = target.Local().Format(timeLayout)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fast should end at").
				Description("Sets the goal from this end time").
				Validate(func(s string) error {
					t, err := parseLocalTime(s)
					if err != nil {
						return err
					}
					if t.Before(start) {
						return errors.New("end time cannot be before start time")
					}
					return nil
				}).
				Value(m.editTime),
		).Title("Edit end time"),
	).WithShowHelp(true).WithShowErrors(true)
	m.formKind = "edit_end"
	m.formActive = true
	return m, m.form.Init()
}

func (m timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m.applyForm()
	}

	return m, cmd
}

func (m timerModel) applyForm() (timerModel, tea.Cmd) {
	switch m.formKind {
	case "start":
		goal, err := parseGoalHours(*m.goalHours)
		if err != nil {
			return m, errStatus(err)
		}
		if err := m.tracker.Start(time.Now(), goal); err != nil {
			return m, errStatus(err)
		}
		return m, tea.Batch(
			func() tea.Msg { return stateChangedMsg{} },
			func() tea.Msg { return fastStartedMsg{} },
		)

	case "edit_start":
		t, err := parseLocalTime(*m.editTime)
		if err != nil {
			return m, errStatus(err)
		}
		if err := m.tracker.EditActiveTime(fasting.FieldStart, t); err != nil {
			return m, errStatus(err)
		}
		return m, tea.Batch(
			func() tea.Msg { return stateChangedMsg{} },
			func() tea.Msg { return statusMsg{text: "Start time updated"} },
		)

	case "edit_end":
		t, err := parseLocalTime(*m.editTime)
		if err != nil {
			return m, errStatus(err)
		}
		if err := m.tracker.EditActiveTime(fasting.FieldEnd, t); err != nil {
			return m, errStatus(err)
		}
		goal := m.tracker.Goal()
		return m, tea.Batch(
			func() tea.Msg { return stateChangedMsg{} },
			func() tea.Msg { return statusMsg{text: "Goal set to " + formatGoal(goal)} },
		)
	}
	return m, nil
}

// --- View ---

func (m timerModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(m.form.View())
	}

	panels := []string{m.renderTimerPanel(w)}
	if m.editPicking {
		panels = append(panels, m.renderEditPicker(w))
	} else {
		panels = append(panels, m.renderMoodPanel(w))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m timerModel) renderTimerPanel(w int) string {
	if !m.tracker.Fasting() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerStyle.Width(w-6).Render("00:00:00"),
			mutedStyle.Render("■  NOT FASTING"),
			mutedStyle.Render("Press s to start a fast"),
		)
		return panelStyle.Width(w).Render(content)
	}

	elapsed := m.tracker.Elapsed(m.now)
	goal := m.tracker.Goal()

	var rows []string
	if goal > 0 && elapsed > time.Duration(goal)*time.Second {
		over := elapsed - time.Duration(goal)*time.Second
		rows = append(rows,
			timerOverGoalStyle.Width(w-6).Render(formatDuration(elapsed)),
			highlightStyle.Render(fmt.Sprintf("★  GOAL MET — over by %s", formatDuration(over))),
		)
	} else {
		rows = append(rows,
			timerFastingStyle.Width(w-6).Render(formatDuration(elapsed)),
			successStyle.Render("●  FASTING"),
		)
	}

	start, _ := m.tracker.StartTime()
	startLine := mutedStyle.Render("since " + start.Local().Format("Mon 15:04"))
	if goal > 0 {
		pct := float64(elapsed.Seconds()) / float64(goal) * 100
		startLine += mutedStyle.Render(fmt.Sprintf("  ·  goal %s  ·  %.0f%%", formatGoal(goal), pct))
	}
	rows = append(rows, startLine)

	if goal > 0 {
		rows = append(rows, "", m.renderMilestones(elapsed, goal))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, rows...)
	return activePanelStyle.Width(w).Render(content)
}

// renderMilestones draws one dot per milestone: delivered, passed but not
// yet delivered, or upcoming.
func (m timerModel) renderMilestones(elapsed time.Duration, goal int64) string {
	var parts []string
	for _, ms := range notify.Milestones {
		threshold := time.Duration(float64(goal)*float64(ms.Percent)/100) * time.Second
		switch {
		case m.sched.Fired(ms.Percent):
			parts = append(parts, successStyle.Render(fmt.Sprintf("● %d%%", ms.Percent)))
		case elapsed >= threshold:
			parts = append(parts, warningStyle.Render(fmt.Sprintf("◐ %d%%", ms.Percent)))
		default:
			parts = append(parts, mutedStyle.Render(fmt.Sprintf("○ %d%%", ms.Percent)))
		}
	}
	return strings.Join(parts, "  ")
}

func (m timerModel) renderMoodPanel(w int) string {
	title := titleStyle.Render("How are you feeling?")

	var items []string
	for i, mood := range fasting.Moods {
		label := fmt.Sprintf("%s %s", mood.Emoji, mood.Label)
		style := normalItemStyle
		if m.tracker.Mood() == mood.Label {
			style = selectedItemStyle
		}
		cursor := " "
		if i == m.moodCursor {
			cursor = ">"
		}
		items = append(items, style.Render(cursor+label))
	}

	row := strings.Join(items, "   ")
	hint := mutedStyle.Render("←/→ choose  enter: set mood")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", row, "", hint),
	)
}

func (m timerModel) renderEditPicker(w int) string {
	title := titleStyle.Render("Edit current fast")
	options := []string{"Start time", "End time (sets goal)"}

	var rows []string
	rows = append(rows, title, "")
	for i, opt := range options {
		cursor := "  "
		style := normalItemStyle
		if i == m.editCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+opt))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: edit  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

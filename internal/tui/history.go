package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okand/fastr/internal/fasting"
)

type historyModel struct {
	tracker *fasting.Tracker
	width   int
	height  int

	cursor int

	formActive bool
	form       *huh.Form
	editingID  string

	// Form values as pointers (survive value copies)
	editStart *string
	editEnd   *string
	editGoal  *string
	editMood  *string
}

func newHistoryModel(tr *fasting.Tracker) historyModel {
	start, end, goal, mood := "", "", "", ""
	return historyModel{
		tracker:   tr,
		editStart: &start,
		editEnd:   &end,
		editGoal:  &goal,
		editMood:  &mood,
	}
}

func (m *historyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	sessions := m.tracker.Sessions()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(sessions)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if m.cursor < len(sessions) {
				return m.showEditForm(sessions[m.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(sessions) {
				id := sessions[m.cursor].ID
				m.tracker.DeleteSession(id)
				if m.cursor >= len(m.tracker.Sessions()) && m.cursor > 0 {
					m.cursor--
				}
				return m, tea.Batch(
					func() tea.Msg { return stateChangedMsg{} },
					func() tea.Msg { return statusMsg{text: "Session deleted"} },
				)
			}
		}
	}
	return m, nil
}

func (m historyModel) showEditForm(s fasting.Session) (historyModel, tea.Cmd) {
	*m.editStart = s.StartTime.Local().Format(timeLayout)
	*m.editEnd = ""
	if s.EndTime != nil {
		*m.editEnd = s.EndTime.Local().Format(timeLayout)
	}
	*m.editGoal = ""
	if s.HasGoal() {
		*m.editGoal = fmt.Sprintf("%g", float64(s.GoalSeconds)/3600)
	}
	*m.editMood = s.Mood
	m.editingID = s.ID

	moodOptions := []huh.Option[string]{huh.NewOption("None", "")}
	for _, mood := range fasting.Moods {
		moodOptions = append(moodOptions, huh.NewOption(mood.Emoji+" "+mood.Label, mood.Label))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Started at").
				Description("YYYY-MM-DD HH:MM, local time").
				Validate(func(v string) error {
					_, err := parseLocalTime(v)
					return err
				}).
				Value(m.editStart),
			huh.NewInput().
				Title("Ended at").
				Validate(func(v string) error {
					end, err := parseLocalTime(v)
					if err != nil {
						return err
					}
					if start, serr := parseLocalTime(*m.editStart); serr == nil && end.Before(start) {
						return errors.New("end time cannot be before start time")
					}
					return nil
				}).
				Value(m.editEnd),
			huh.NewInput().
				Title("Goal (hours)").
				Description("Leave empty for no goal").
				Validate(func(v string) error {
					_, err := parseGoalHours(v)
					return err
				}).
				Value(m.editGoal),
			huh.NewSelect[string]().
				Title("Mood").
				Options(moodOptions...).
				Value(m.editMood),
		).Title("Edit session"),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
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
		return m.applyEdit()
	}

	return m, cmd
}

func (m historyModel) applyEdit() (historyModel, tea.Cmd) {
	start, err := parseLocalTime(*m.editStart)
	if err != nil {
		return m, errStatus(err)
	}
	end, err := parseLocalTime(*m.editEnd)
	if err != nil {
		return m, errStatus(err)
	}
	goal, err := parseGoalHours(*m.editGoal)
	if err != nil {
		return m, errStatus(err)
	}

	m.tracker.EditSession(fasting.Session{
		ID:          m.editingID,
		StartTime:   start,
		EndTime:     &end,
		Mood:        *m.editMood,
		GoalSeconds: goal,
	})
	return m, tea.Batch(
		func() tea.Msg { return stateChangedMsg{} },
		func() tea.Msg { return statusMsg{text: "Session updated"} },
	)
}

func (m historyModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(m.form.View())
	}

	header := titleStyle.Render("Fasting History")
	if streak := m.tracker.Streak(); streak > 0 {
		header += "  " + streakStyle.Render(fmt.Sprintf("🔥 %d streak", streak))
	}

	sessions := m.tracker.Sessions()
	if len(sessions) == 0 {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				header,
				"",
				mutedStyle.Render("No fasting sessions recorded yet."),
			),
		)
	}

	var rows []string
	rows = append(rows, header, "")
	visible := min(len(sessions), m.height-8)
	if visible < 1 {
		visible = len(sessions)
	}
	for i := 0; i < len(sessions) && i < visible; i++ {
		rows = append(rows, m.renderRow(sessions[i], i == m.cursor))
	}
	if len(sessions) > visible {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(sessions)-visible)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: edit  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m historyModel) renderRow(s fasting.Session, selected bool) string {
	cursor := "  "
	if selected {
		cursor = selectedItemStyle.Render("> ")
	}

	dayStr := s.StartTime.Local().Format("Jan 02 15:04")
	durStr := "ongoing"
	durStyle := mutedStyle
	if s.EndTime != nil {
		secs := int64(s.Duration().Seconds())
		durStr = formatHoursMinutes(secs)
		switch {
		case s.HasGoal() && secs >= s.GoalSeconds:
			durStyle = highlightStyle
		case s.HasGoal():
			durStyle = errorStyle
		default:
			durStyle = normalItemStyle
		}
	}

	goalStr := "—"
	if s.HasGoal() {
		goalStr = formatGoal(s.GoalSeconds)
	}

	moodStr := " "
	for _, mood := range fasting.Moods {
		if mood.Label == s.Mood {
			moodStr = mood.Emoji
			break
		}
	}

	return fmt.Sprintf("%s%s  %s %s  goal %s  %s",
		cursor, dayStr, durStyle.Render(fmt.Sprintf("%-8s", durStr)), moodStr, goalStr, mutedStyle.Render(shortID(s.ID)))
}

func formatHoursMinutes(secs int64) string {
	h := secs / 3600
	mins := (secs % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, mins)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

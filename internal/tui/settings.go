package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/okand/fastr/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	goalHours     *string
	notifications *string
	moodPrompt    *string
}

func newSettingsModel(s *store.Store) settingsModel {
	goal, notif, mood := "", "", ""
	return settingsModel{
		store:         s,
		goalHours:     &goal,
		notifications: &notif,
		moodPrompt:    &mood,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return m.showForm()
		}
	}
	return m, nil
}

func (m settingsModel) showForm() (settingsModel, tea.Cmd) {
	*m.goalHours = secondsSettingToHours(m.currentSetting("default_goal", "57600"))
	*m.notifications = m.currentSetting("notifications", "on")
	*m.moodPrompt = m.currentSetting("mood_prompt", "on")

	onOff := []huh.Option[string]{
		huh.NewOption("On", "on"),
		huh.NewOption("Off", "off"),
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default goal (hours)").
				Description("Pre-filled when starting a fast. Leave empty for none.").
				Validate(func(v string) error {
					_, err := parseGoalHours(v)
					return err
				}).
				Value(m.goalHours),
			huh.NewSelect[string]().
				Title("Milestone notifications").
				Options(onOff...).
				Value(m.notifications),
			huh.NewSelect[string]().
				Title("Mood prompt after a fast").
				Options(onOff...).
				Value(m.moodPrompt),
		).Title("Settings"),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		return m.save()
	}

	return m, cmd
}

func (m settingsModel) save() (settingsModel, tea.Cmd) {
	goalSecs, err := parseGoalHours(*m.goalHours)
	if err != nil {
		return m, errStatus(err)
	}

	if err := m.store.SetSetting("default_goal", strconv.FormatInt(goalSecs, 10)); err != nil {
		return m, errStatus(err)
	}
	if err := m.store.SetSetting("notifications", *m.notifications); err != nil {
		return m, errStatus(err)
	}
	if err := m.store.SetSetting("mood_prompt", *m.moodPrompt); err != nil {
		return m, errStatus(err)
	}

	return m, tea.Batch(
		func() tea.Msg { return settingsSavedMsg{} },
		func() tea.Msg { return statusMsg{text: "Settings saved"} },
	)
}

func (m settingsModel) currentSetting(name, fallback string) string {
	v, err := m.store.GetSetting(name)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (m settingsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return activePanelStyle.Width(w).Render(m.form.View())
	}

	goal := secondsSettingToHours(m.currentSetting("default_goal", "57600"))
	goalLabel := "none"
	if goal != "" {
		goalLabel = goal + "h"
	}

	rows := fmt.Sprintf("  %-28s %s\n  %-28s %s\n  %-28s %s",
		"Default goal", highlightStyle.Render(goalLabel),
		"Milestone notifications", highlightStyle.Render(m.currentSetting("notifications", "on")),
		"Mood prompt after a fast", highlightStyle.Render(m.currentSetting("mood_prompt", "on")),
	)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Settings"),
			"",
			rows,
			"",
			mutedStyle.Render("  enter: edit"),
		),
	)
}

// secondsSettingToHours renders a stored seconds value as an hours string for
// the form, empty when unset or zero.
func secondsSettingToHours(v string) string {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return ""
	}
	return fmt.Sprintf("%g", float64(secs)/3600)
}

package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/okand/fastr/internal/fasting"
)

type statsModel struct {
	tracker *fasting.Tracker
	width   int
	height  int

	offset int // 7-day blocks back from today (0 = current)
	chart  barchart.Model
}

func newStatsModel(tr *fasting.Tracker) statsModel {
	return statsModel{
		tracker: tr,
		chart:   barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m statsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().Local()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	end := today.AddDate(0, 0, 1-7*m.offset)
	return end.AddDate(0, 0, -7), end
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, nil
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
			}
			return m, nil
		}
	}
	return m, nil
}

// fastedByDay sums completed fast durations per start day within [from, to).
func (m statsModel) fastedByDay(from, to time.Time) map[string]int64 {
	totals := make(map[string]int64)
	for _, s := range m.tracker.Sessions() {
		if s.EndTime == nil {
			continue
		}
		start := s.StartTime.Local()
		if start.Before(from) || !start.Before(to) {
			continue
		}
		totals[start.Format("2006-01-02")] += int64(s.Duration().Seconds())
	}
	return totals
}

func (m *statsModel) buildChart(from, to time.Time) {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)
	totals := m.fastedByDay(from, to)

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		secs := totals[d.Format("2006-01-02")]
		hours := float64(secs) / 3600.0
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if secs == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{
				{Name: "fasted", Value: hours, Style: style},
			},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	from, to := m.dateRange()
	m.buildChart(from, to)

	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s",
		from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", dateLabel,
	)

	summary := m.renderSummary()
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.chart.View(), "", summary, "", nav,
		),
	)
}

func (m statsModel) renderSummary() string {
	sessions := m.tracker.Sessions()

	var totalSecs, longest int64
	completed := 0
	for _, s := range sessions {
		if s.EndTime == nil {
			continue
		}
		secs := int64(s.Duration().Seconds())
		totalSecs += secs
		if secs > longest {
			longest = secs
		}
		completed++
	}

	rows := fmt.Sprintf("  %-16s %s\n  %-16s %s\n  %-16s %d\n  %-16s %d",
		"Total fasted", highlightStyle.Render(formatHoursMinutes(totalSecs)),
		"Longest fast", highlightStyle.Render(formatHoursMinutes(longest)),
		"Completed", completed,
		"Streak", m.tracker.Streak(),
	)
	return rows
}

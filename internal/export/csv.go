package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/okand/fastr/internal/fasting"
)

func ToCSV(sessions []fasting.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Start", "End", "Duration (s)", "Duration", "Goal (s)", "Goal Met", "Mood"}); err != nil {
		return err
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}
		secs := int64(s.Duration().Seconds())

		goalStr := ""
		metStr := ""
		if s.HasGoal() {
			goalStr = fmt.Sprintf("%d", s.GoalSeconds)
			metStr = "no"
			if s.MetGoal() {
				metStr = "yes"
			}
		}

		row := []string{
			s.ID,
			s.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", secs),
			formatDuration(secs),
			goalStr,
			metStr,
			s.Mood,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

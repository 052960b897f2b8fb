package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okand/fastr/internal/fasting"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          string `json:"id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	GoalSec     int64  `json:"goal_seconds,omitempty"`
	GoalMet     bool   `json:"goal_met,omitempty"`
	Mood        string `json:"mood,omitempty"`
}

func ToJSON(sessions []fasting.Session, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}
		secs := int64(s.Duration().Seconds())

		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			StartTime:   s.StartTime.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationSec: secs,
			Duration:    formatDuration(secs),
			GoalSec:     s.GoalSeconds,
			GoalMet:     s.MetGoal(),
			Mood:        s.Mood,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okand/fastr/internal/fasting"
)

func sampleSessions() []fasting.Session {
	now := time.Now().UTC()
	end := now
	short := now.Add(-30 * time.Minute)

	return []fasting.Session{
		{
			ID:          "a1b2",
			StartTime:   now.Add(-16 * time.Hour),
			EndTime:     &end,
			Mood:        "Happy",
			GoalSeconds: 57600,
		},
		{
			ID:        "c3d4",
			StartTime: now.Add(-time.Hour),
			EndTime:   &short, // missed whatever goal there was
			Mood:      "",
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	sessions := sampleSessions()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sessions, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"ID", "Start", "End", "Duration (s)", "Duration", "Goal (s)", "Goal Met", "Mood"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "a1b2" {
		t.Fatalf("ID = %q, want a1b2", row[0])
	}
	if row[3] != "57600" {
		t.Fatalf("Duration (s) = %q, want 57600", row[3])
	}
	if row[4] != "16:00:00" {
		t.Fatalf("Duration = %q, want 16:00:00", row[4])
	}
	if row[6] != "yes" {
		t.Fatalf("Goal Met = %q, want yes", row[6])
	}
	if row[7] != "Happy" {
		t.Fatalf("Mood = %q, want Happy", row[7])
	}

	// Goal-less session: goal columns stay empty.
	goalless := records[2]
	if goalless[5] != "" || goalless[6] != "" {
		t.Fatalf("goal-less session should have empty goal columns, got %q %q", goalless[5], goalless[6])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(sampleSessions(), "/nonexistent/dir/out.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	sessions := sampleSessions()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sessions, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var out jsonExport
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if out.Count != 2 || len(out.Sessions) != 2 {
		t.Fatalf("count = %d, sessions = %d, want 2/2", out.Count, len(out.Sessions))
	}
	if out.ExportedAt == "" {
		t.Fatal("exported_at missing")
	}

	first := out.Sessions[0]
	if first.ID != "a1b2" || first.DurationSec != 57600 || !first.GoalMet {
		t.Fatalf("unexpected first session: %+v", first)
	}
	if first.Duration != "16:00:00" {
		t.Fatalf("duration = %q, want 16:00:00", first.Duration)
	}

	second := out.Sessions[1]
	if second.GoalSec != 0 || second.GoalMet {
		t.Fatalf("goal-less session should carry no goal: %+v", second)
	}
	if second.Mood != "" {
		t.Fatalf("mood = %q, want empty", second.Mood)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(sampleSessions(), "/nonexistent/dir/out.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

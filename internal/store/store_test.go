package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okand/fastr/internal/fasting"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState() AppState {
	start := time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC)
	end := start.Add(16 * time.Hour)
	active := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	return AppState{
		Fasting:     true,
		StartTime:   &active,
		Mood:        "Energetic",
		GoalSeconds: 57600,
		Sessions: []fasting.Session{
			{
				ID:          uuid.NewString(),
				StartTime:   start,
				EndTime:     &end,
				Mood:        "Happy",
				GoalSeconds: 57600,
			},
			{
				ID:        uuid.NewString(),
				StartTime: start.Add(-48 * time.Hour),
				EndTime:   &start,
			},
		},
	}
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/fastr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// App state blob
// ============================================================

func TestLoadStateFirstRun(t *testing.T) {
	s := newTestStore(t)
	_, found, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("fresh store should have no state")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	state := sampleState()

	if err := s.SaveState(state); err != nil {
		t.Fatal(err)
	}
	got, found, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("state should be found after save")
	}

	if got.Fasting != state.Fasting || got.Mood != state.Mood || got.GoalSeconds != state.GoalSeconds {
		t.Fatalf("active fields differ: %+v vs %+v", got, state)
	}
	if got.StartTime == nil || !got.StartTime.Equal(*state.StartTime) {
		t.Fatalf("start time = %v, want %v", got.StartTime, state.StartTime)
	}
	if len(got.Sessions) != len(state.Sessions) {
		t.Fatalf("session count = %d, want %d", len(got.Sessions), len(state.Sessions))
	}
	for i, want := range state.Sessions {
		sess := got.Sessions[i]
		if sess.ID != want.ID || sess.Mood != want.Mood || sess.GoalSeconds != want.GoalSeconds {
			t.Fatalf("session %d differs: %+v vs %+v", i, sess, want)
		}
		if !sess.StartTime.Equal(want.StartTime) {
			t.Fatalf("session %d start differs", i)
		}
		if (sess.EndTime == nil) != (want.EndTime == nil) {
			t.Fatalf("session %d end presence differs", i)
		}
		if sess.EndTime != nil && !sess.EndTime.Equal(*want.EndTime) {
			t.Fatalf("session %d end differs", i)
		}
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveState(sampleState()); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveState(AppState{}); err != nil {
		t.Fatal(err)
	}
	got, _, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if got.Fasting || len(got.Sessions) != 0 {
		t.Fatalf("second save should fully replace the blob: %+v", got)
	}
}

func TestBlobWireFormat(t *testing.T) {
	// The persisted shape is a contract: field names and null handling must
	// stay compatible with blobs written by earlier versions.
	state := sampleState()
	data, err := json.Marshal(state.toBlob())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"isFasting", "startTime", "selectedMood", "sessions", "currentFastingDurationSeconds"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("blob missing %q: %s", key, data)
		}
	}
	sessions := m["sessions"].([]any)
	goalless := sessions[1].(map[string]any)
	if _, ok := goalless["goalDurationSeconds"]; ok {
		t.Fatal("absent goal must be omitted, not zero")
	}
	if goalless["mood"] != nil {
		t.Fatalf("absent mood must be null, got %v", goalless["mood"])
	}
}

func TestLoadStateMigratesLegacyIDs(t *testing.T) {
	s := newTestStore(t)
	state := sampleState()
	state.Sessions[0].ID = "3" // numeric id from the old format
	if err := s.SaveState(state); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(got.Sessions[0].ID); err != nil {
		t.Fatalf("legacy id not migrated: %q", got.Sessions[0].ID)
	}
	if got.Sessions[1].ID != state.Sessions[1].ID {
		t.Fatal("valid ids must be left alone")
	}

	// Migration persists immediately: a reload sees the new id.
	again, _, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if again.Sessions[0].ID != got.Sessions[0].ID {
		t.Fatal("migrated id should be stable across loads")
	}
}

func TestLoadStateCorruptBlob(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(`INSERT INTO app_state (key, value) VALUES (?, ?)`, stateKey, "{not json")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.LoadState(); err == nil {
		t.Fatal("corrupt blob should surface an error")
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettingsSeeded(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("default_goal")
	if err != nil {
		t.Fatal(err)
	}
	if v != "57600" {
		t.Fatalf("default_goal = %q, want 57600", v)
	}
	if v, _ := s.GetSetting("notifications"); v != "on" {
		t.Fatalf("notifications = %q, want on", v)
	}
}

func TestSetSettingUpserts(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("default_goal", "28800"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSetting("default_goal"); v != "28800" {
		t.Fatalf("setting not updated: %q", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != 3 {
		t.Fatalf("expected 3 seeded settings, got %d", len(settings))
	}
}

func TestGetSettingMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for unknown setting")
	}
}

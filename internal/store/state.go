package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okand/fastr/internal/fasting"
)

// The whole application state is persisted as one JSON blob under a single
// key and rewritten in full after every state-affecting action.
const stateKey = "appState"

// AppState is the persisted snapshot of the tracker: the active fast (if
// any) plus the full history, most recent first.
type AppState struct {
	Fasting     bool
	StartTime   *time.Time
	Mood        string
	GoalSeconds int64
	Sessions    []fasting.Session
}

// Wire form of the blob. Timestamps are RFC 3339 strings, absent moods and
// goals are null/omitted.
type stateBlob struct {
	IsFasting                     bool          `json:"isFasting"`
	StartTime                     *string       `json:"startTime"`
	SelectedMood                  *string       `json:"selectedMood"`
	Sessions                      []sessionBlob `json:"sessions"`
	CurrentFastingDurationSeconds *int64        `json:"currentFastingDurationSeconds"`
}

type sessionBlob struct {
	ID                  string  `json:"id"`
	StartTime           string  `json:"startTime"`
	EndTime             *string `json:"endTime"`
	Mood                *string `json:"mood"`
	GoalDurationSeconds *int64  `json:"goalDurationSeconds,omitempty"`
}

// LoadState reads the persisted snapshot. found is false on first run.
// Historical records whose id is not a valid UUID (from versions that used
// numeric ids) get a fresh one, and the migrated state is re-persisted
// immediately.
func (s *Store) LoadState() (AppState, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, stateKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return AppState{}, false, nil
	}
	if err != nil {
		return AppState{}, false, fmt.Errorf("load state: %w", err)
	}

	var blob stateBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return AppState{}, false, fmt.Errorf("decode state: %w", err)
	}

	state, err := blob.toState()
	if err != nil {
		return AppState{}, false, err
	}

	migrated := false
	for i := range state.Sessions {
		if _, err := uuid.Parse(state.Sessions[i].ID); err != nil {
			state.Sessions[i].ID = uuid.NewString()
			migrated = true
		}
	}
	if migrated {
		if err := s.SaveState(state); err != nil {
			return AppState{}, false, fmt.Errorf("persist migrated state: %w", err)
		}
	}

	return state, true, nil
}

// SaveState overwrites the persisted snapshot.
func (s *Store) SaveState(state AppState) error {
	data, err := json.Marshal(state.toBlob())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stateKey, string(data),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (st AppState) toBlob() stateBlob {
	blob := stateBlob{
		IsFasting: st.Fasting,
		Sessions:  make([]sessionBlob, 0, len(st.Sessions)),
	}
	if st.StartTime != nil {
		s := st.StartTime.Format(time.RFC3339)
		blob.StartTime = &s
	}
	if st.Mood != "" {
		m := st.Mood
		blob.SelectedMood = &m
	}
	if st.GoalSeconds > 0 {
		g := st.GoalSeconds
		blob.CurrentFastingDurationSeconds = &g
	}
	for _, sess := range st.Sessions {
		sb := sessionBlob{
			ID:        sess.ID,
			StartTime: sess.StartTime.Format(time.RFC3339),
		}
		if sess.EndTime != nil {
			e := sess.EndTime.Format(time.RFC3339)
			sb.EndTime = &e
		}
		if sess.Mood != "" {
			m := sess.Mood
			sb.Mood = &m
		}
		if sess.GoalSeconds > 0 {
			g := sess.GoalSeconds
			sb.GoalDurationSeconds = &g
		}
		blob.Sessions = append(blob.Sessions, sb)
	}
	return blob
}

func (b stateBlob) toState() (AppState, error) {
	state := AppState{
		Fasting:  b.IsFasting,
		Sessions: make([]fasting.Session, 0, len(b.Sessions)),
	}
	if b.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *b.StartTime)
		if err != nil {
			return AppState{}, fmt.Errorf("parse start time: %w", err)
		}
		state.StartTime = &t
	}
	if b.SelectedMood != nil {
		state.Mood = *b.SelectedMood
	}
	if b.CurrentFastingDurationSeconds != nil {
		state.GoalSeconds = *b.CurrentFastingDurationSeconds
	}
	for _, sb := range b.Sessions {
		sess := fasting.Session{ID: sb.ID}
		t, err := time.Parse(time.RFC3339, sb.StartTime)
		if err != nil {
			return AppState{}, fmt.Errorf("parse session %s start: %w", sb.ID, err)
		}
		sess.StartTime = t
		if sb.EndTime != nil {
			e, err := time.Parse(time.RFC3339, *sb.EndTime)
			if err != nil {
				return AppState{}, fmt.Errorf("parse session %s end: %w", sb.ID, err)
			}
			sess.EndTime = &e
		}
		if sb.Mood != nil {
			sess.Mood = *sb.Mood
		}
		if sb.GoalDurationSeconds != nil {
			sess.GoalSeconds = *sb.GoalDurationSeconds
		}
		state.Sessions = append(state.Sessions, sess)
	}
	return state, nil
}

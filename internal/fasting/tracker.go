package fasting

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyFasting = errors.New("a fast is already in progress")
	ErrNotFasting     = errors.New("no fast in progress")
)

// TimeField selects which end of the active fast an edit applies to.
type TimeField string

const (
	FieldStart TimeField = "start"
	FieldEnd   TimeField = "end"
)

// Tracker owns the fasting state: whether a fast is active, its start time,
// goal and pending mood, and the history of completed sessions (most recent
// first). All mutation goes through its methods; callers persist snapshots
// after each change.
type Tracker struct {
	fasting     bool
	startTime   time.Time
	mood        string
	goalSeconds int64
	sessions    []Session
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Start begins a new fast at now with the given goal (0 = no goal).
// Any mood selected before the previous fast ended is cleared.
func (t *Tracker) Start(now time.Time, goalSeconds int64) error {
	if t.fasting {
		return ErrAlreadyFasting
	}
	t.fasting = true
	t.startTime = now
	t.goalSeconds = goalSeconds
	t.mood = ""
	return nil
}

// End finalizes the active fast into a new history record and returns it.
// The record is prepended so the list stays most-recent-first.
func (t *Tracker) End(now time.Time) (Session, error) {
	if !t.fasting {
		return Session{}, ErrNotFasting
	}
	end := now
	s := Session{
		ID:          uuid.NewString(),
		StartTime:   t.startTime,
		EndTime:     &end,
		Mood:        t.mood,
		GoalSeconds: t.goalSeconds,
	}
	t.sessions = append([]Session{s}, t.sessions...)
	t.fasting = false
	t.startTime = time.Time{}
	t.mood = ""
	t.goalSeconds = 0
	return s, nil
}

// SelectMood records the mood for the active (or next) fast.
// Last write wins.
func (t *Tracker) SelectMood(label string) {
	t.mood = label
}

// EditActiveTime adjusts the running fast. Editing the start moves the whole
// fast (the goal is unchanged, so the implied end shifts by the same delta).
// Editing the end re-derives the goal from the new end time and the start
// truncated to the whole minute, clamped at zero.
func (t *Tracker) EditActiveTime(field TimeField, newTime time.Time) error {
	if !t.fasting {
		return ErrNotFasting
	}
	switch field {
	case FieldStart:
		t.startTime = newTime
	case FieldEnd:
		start := t.startTime.Truncate(time.Minute)
		secs := int64(math.Round(newTime.Sub(start).Seconds()))
		if secs < 0 {
			secs = 0
		}
		t.goalSeconds = secs
	}
	return nil
}

// EditSession replaces the history record with the same ID, keeping its list
// position. Unknown IDs are a no-op.
func (t *Tracker) EditSession(updated Session) {
	for i := range t.sessions {
		if t.sessions[i].ID == updated.ID {
			t.sessions[i] = updated
			return
		}
	}
}

// DeleteSession removes the history record with the given ID, if present.
func (t *Tracker) DeleteSession(id string) {
	for i := range t.sessions {
		if t.sessions[i].ID == id {
			t.sessions = append(t.sessions[:i], t.sessions[i+1:]...)
			return
		}
	}
}

// Streak counts consecutive goal-met sessions, newest ended first. Sessions
// without a goal are skipped; the first session that had a goal and missed
// it stops the count.
func (t *Tracker) Streak() int {
	ordered := make([]Session, len(t.sessions))
	copy(ordered, t.sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].EndTime, ordered[j].EndTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	streak := 0
	for _, s := range ordered {
		if !s.HasGoal() {
			continue
		}
		if !s.MetGoal() {
			break
		}
		streak++
	}
	return streak
}

// Restore replaces the tracker's state wholesale, used when loading the
// persisted snapshot at startup.
func (t *Tracker) Restore(fasting bool, startTime *time.Time, mood string, goalSeconds int64, sessions []Session) {
	t.fasting = fasting
	if startTime != nil {
		t.startTime = *startTime
	} else {
		t.startTime = time.Time{}
	}
	t.mood = mood
	t.goalSeconds = goalSeconds
	t.sessions = sessions
}

func (t *Tracker) Fasting() bool { return t.fasting }

// StartTime returns the active fast's start time; ok is false when idle.
func (t *Tracker) StartTime() (time.Time, bool) {
	if !t.fasting || t.startTime.IsZero() {
		return time.Time{}, false
	}
	return t.startTime, true
}

func (t *Tracker) Goal() int64  { return t.goalSeconds }
func (t *Tracker) Mood() string { return t.mood }

func (t *Tracker) Sessions() []Session { return t.sessions }

// Elapsed returns wall-clock time since the fast started, 0 when idle.
func (t *Tracker) Elapsed(now time.Time) time.Duration {
	if !t.fasting || t.startTime.IsZero() {
		return 0
	}
	return now.Sub(t.startTime)
}

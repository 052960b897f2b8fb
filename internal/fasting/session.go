package fasting

import "time"

// Session is a completed fast in the history list. The in-progress fast is
// never stored as a Session; it lives in the Tracker until it is ended.
type Session struct {
	ID          string
	StartTime   time.Time
	EndTime     *time.Time
	Mood        string // empty = no mood recorded
	GoalSeconds int64  // 0 = no goal set
}

// Duration returns the fasted time, or 0 for a session with no end time.
func (s Session) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s Session) HasGoal() bool {
	return s.GoalSeconds > 0
}

// MetGoal reports whether the session lasted at least its goal duration.
// Sessions without a goal never "meet" it.
func (s Session) MetGoal() bool {
	if !s.HasGoal() || s.EndTime == nil {
		return false
	}
	return int64(s.Duration().Seconds()) >= s.GoalSeconds
}

// Mood is one of the fixed set of moods a fast can be tagged with.
type Mood struct {
	Label string
	Emoji string
}

var Moods = []Mood{
	{Label: "Happy", Emoji: "😊"},
	{Label: "Neutral", Emoji: "😐"},
	{Label: "Sad", Emoji: "😞"},
	{Label: "Energetic", Emoji: "⚡"},
	{Label: "Tired", Emoji: "😴"},
}

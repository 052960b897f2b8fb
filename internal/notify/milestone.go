package notify

import (
	"fmt"
	"time"
)

// Milestone is a fixed percentage-of-goal threshold that triggers a one-time
// notification per fast.
type Milestone struct {
	Percent int
	Message string
}

func (m Milestone) Title() string {
	return fmt.Sprintf("Fasting Progress: %d%%", m.Percent)
}

// Milestones in ascending percent order.
var Milestones = []Milestone{
	{Percent: 20, Message: "20% of the way there! Good Job!"},
	{Percent: 50, Message: "Wow! You're half way there! Don't give up!"},
	{Percent: 80, Message: "You're so close, not long now to go!"},
	{Percent: 100, Message: "Congratulations! You've completed your fast!"},
}

// Deferred is a milestone to hand to the platform for future delivery.
type Deferred struct {
	Milestone Milestone
	At        time.Time
}

// Plan is the outcome of one scheduling pass: milestones whose time has
// already passed and should fire immediately, and upcoming ones to defer.
type Plan struct {
	FireNow []Milestone
	Later   []Deferred
}

// ComputeSchedule derives the full milestone plan from the current fast.
// Milestones already fired are excluded. Once the fast has overrun its goal,
// only the 100% milestone is still eligible for an immediate catch-up fire;
// the skipped earlier ones are not sent after the fact. Future milestones
// are deferred only if their fire time is still ahead of now; a borderline
// one is picked up as an immediate fire on a later pass instead.
func ComputeSchedule(startTime time.Time, goalSeconds, elapsedSeconds int64, now time.Time, fired map[int]bool) Plan {
	var plan Plan
	if startTime.IsZero() || goalSeconds <= 0 {
		return plan
	}
	for _, m := range Milestones {
		if fired[m.Percent] {
			continue
		}
		milestoneElapsed := float64(goalSeconds) * float64(m.Percent) / 100
		if float64(elapsedSeconds) >= milestoneElapsed {
			if elapsedSeconds > goalSeconds && m.Percent != 100 {
				continue
			}
			plan.FireNow = append(plan.FireNow, m)
		} else {
			at := startTime.Add(time.Duration(milestoneElapsed * float64(time.Second)))
			if at.After(now) {
				plan.Later = append(plan.Later, Deferred{Milestone: m, At: at})
			}
		}
	}
	return plan
}

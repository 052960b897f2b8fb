package notify

import (
	"errors"
	"testing"
	"time"
)

// fakePort records every call so tests can assert on scheduler behavior.
type fakePort struct {
	granted   bool
	sendErr   error
	sent      []int // percents, derived from titles in order of Send calls
	sentIDs   []int
	scheduled []Deferred
	cancels   int
}

func newFakePort() *fakePort {
	return &fakePort{granted: true}
}

func (f *fakePort) RequestPermission() bool { return f.granted }

func (f *fakePort) Send(id int, title, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentIDs = append(f.sentIDs, id)
	f.sent = append(f.sent, percentOf(body))
	return nil
}

func (f *fakePort) ScheduleAt(id int, title, body string, at time.Time) error {
	f.scheduled = append(f.scheduled, Deferred{Milestone: byPercent(percentOf(body)), At: at})
	return nil
}

func (f *fakePort) CancelAll() error {
	f.cancels++
	f.scheduled = nil
	return nil
}

func percentOf(body string) int {
	for _, m := range Milestones {
		if m.Message == body {
			return m.Percent
		}
	}
	return -1
}

func byPercent(p int) Milestone {
	for _, m := range Milestones {
		if m.Percent == p {
			return m
		}
	}
	return Milestone{}
}

// ============================================================
// ComputeSchedule
// ============================================================

func TestComputeSchedulePassedAndUpcoming(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	now := start.Add(15 * time.Minute)

	// 1h goal, 25% elapsed: 20% has passed, the rest are upcoming.
	plan := ComputeSchedule(start, 3600, 900, now, nil)
	if len(plan.FireNow) != 1 || plan.FireNow[0].Percent != 20 {
		t.Fatalf("FireNow = %+v, want just 20%%", plan.FireNow)
	}
	if len(plan.Later) != 3 {
		t.Fatalf("Later = %+v, want 50/80/100", plan.Later)
	}
	wantAt := start.Add(30 * time.Minute)
	if !plan.Later[0].At.Equal(wantAt) {
		t.Fatalf("50%% deferred at %v, want %v", plan.Later[0].At, wantAt)
	}
}

func TestComputeScheduleSkipsFired(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	plan := ComputeSchedule(start, 3600, 900, start.Add(15*time.Minute), map[int]bool{20: true})
	if len(plan.FireNow) != 0 {
		t.Fatalf("fired milestone must not re-fire: %+v", plan.FireNow)
	}
}

func TestComputeScheduleOverrunOnlyFinal(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	// Goal long overrun, nothing fired yet: only 100% catches up.
	plan := ComputeSchedule(start, 3600, 7200, start.Add(2*time.Hour), nil)
	if len(plan.FireNow) != 1 || plan.FireNow[0].Percent != 100 {
		t.Fatalf("FireNow = %+v, want just 100%%", plan.FireNow)
	}
	if len(plan.Later) != 0 {
		t.Fatalf("nothing should be deferred after overrun: %+v", plan.Later)
	}
}

func TestComputeScheduleExactGoalFiresAll(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	// elapsed == goal is not an overrun: every unfired milestone has passed.
	plan := ComputeSchedule(start, 3600, 3600, start.Add(time.Hour), nil)
	if len(plan.FireNow) != 4 {
		t.Fatalf("FireNow = %+v, want all four", plan.FireNow)
	}
}

func TestComputeScheduleNoGoal(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if plan := ComputeSchedule(start, 0, 900, start, nil); len(plan.FireNow)+len(plan.Later) != 0 {
		t.Fatal("no schedule without a goal")
	}
	if plan := ComputeSchedule(time.Time{}, 3600, 900, start, nil); len(plan.FireNow)+len(plan.Later) != 0 {
		t.Fatal("no schedule without a start time")
	}
}

func TestComputeScheduleSkipsPastDeferral(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	// Elapsed says 50% is upcoming but wall clock is already past its fire
	// time: skip deferring, a later pass fires it immediately instead.
	now := start.Add(31 * time.Minute)
	plan := ComputeSchedule(start, 3600, 1799, now, map[int]bool{20: true})
	for _, d := range plan.Later {
		if d.Milestone.Percent == 50 {
			t.Fatal("50% must not be deferred into the past")
		}
	}
}

// ============================================================
// Scheduler ticks
// ============================================================

func TestTickFiresPassedMilestoneOnce(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(15*time.Minute), true, start, 3600, 900)
	if len(port.sent) != 1 || port.sent[0] != 20 {
		t.Fatalf("sent = %v, want [20]", port.sent)
	}
	if !s.Fired(20) {
		t.Fatal("20% should be marked fired")
	}

	// Subsequent ticks below 50% must not re-send.
	s.Tick(start.Add(16*time.Minute), true, start, 3600, 960)
	s.Tick(start.Add(17*time.Minute), true, start, 3600, 1020)
	if len(port.sent) != 1 {
		t.Fatalf("sent = %v, want still [20]", port.sent)
	}
}

func TestTickDefersEachUpcomingMilestoneOnce(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(time.Minute), true, start, 3600, 60)
	s.Tick(start.Add(2*time.Minute), true, start, 3600, 120)

	counts := make(map[int]int)
	for _, d := range port.scheduled {
		counts[d.Milestone.Percent]++
	}
	for p, n := range counts {
		if n != 1 {
			t.Fatalf("milestone %d%% deferred %d times", p, n)
		}
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 deferred milestones, got %v", counts)
	}
}

func TestTickFailedSendRetriesNextTick(t *testing.T) {
	port := newFakePort()
	port.sendErr = errors.New("platform unavailable")
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(15*time.Minute), true, start, 3600, 900)
	if s.Fired(20) {
		t.Fatal("failed send must leave the milestone unfired")
	}

	port.sendErr = nil
	s.Tick(start.Add(15*time.Minute+time.Second), true, start, 3600, 901)
	if !s.Fired(20) || len(port.sent) != 1 {
		t.Fatalf("retry should deliver: fired=%v sent=%v", s.Fired(20), port.sent)
	}
}

func TestTickPermissionDeniedSkipsCycle(t *testing.T) {
	port := newFakePort()
	port.granted = false
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(15*time.Minute), true, start, 3600, 900)
	if len(port.sent)+len(port.scheduled) != 0 {
		t.Fatal("nothing may be sent without permission")
	}

	port.granted = true
	s.Tick(start.Add(15*time.Minute+time.Second), true, start, 3600, 901)
	if len(port.sent) != 1 {
		t.Fatal("granting permission should resume on the next tick")
	}
}

func TestTickStopCancelsAndClears(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(15*time.Minute), true, start, 3600, 900)
	s.Tick(start.Add(16*time.Minute), false, time.Time{}, 0, 0)

	if port.cancels == 0 {
		t.Fatal("stopping must cancel pending notifications")
	}
	if s.Fired(20) {
		t.Fatal("fired set must be cleared on stop")
	}
}

func TestTickNewStartTimeResets(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(15*time.Minute), true, start, 3600, 900)
	if !s.Fired(20) {
		t.Fatal("setup: 20% should have fired")
	}

	// Restart: same percent eligible again for the new fast.
	restart := start.Add(time.Hour)
	cancelsBefore := port.cancels
	s.Tick(restart.Add(15*time.Minute), true, restart, 3600, 900)
	if port.cancels <= cancelsBefore {
		t.Fatal("new start time must cancel the old schedule")
	}
	if len(port.sent) != 2 || port.sent[1] != 20 {
		t.Fatalf("sent = %v, want 20%% again for the new fast", port.sent)
	}
}

func TestTickNoGoalDoesNothing(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	s.Tick(start.Add(time.Minute), true, start, 0, 60)
	if len(port.sent)+len(port.scheduled) != 0 || port.cancels != 0 {
		t.Fatal("goal-less fast must not touch the port")
	}
}

func TestTickNotificationIDsAdvance(t *testing.T) {
	port := newFakePort()
	s := NewScheduler(port)
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	// 50% elapsed: 20 and 50 fire immediately in ascending order.
	s.Tick(start.Add(30*time.Minute), true, start, 3600, 1800)
	if len(port.sentIDs) != 2 || port.sentIDs[0] >= port.sentIDs[1] {
		t.Fatalf("ids = %v, want two ascending", port.sentIDs)
	}
}

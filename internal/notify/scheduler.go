package notify

import "time"

// Port is the narrow capability interface over the platform notification
// layer. Implementations are best-effort and non-transactional; the
// scheduler treats every call as fire-and-forget and simply retries on the
// next tick when one fails.
type Port interface {
	RequestPermission() bool
	Send(id int, title, body string) error
	ScheduleAt(id int, title, body string, at time.Time) error
	CancelAll() error
}

// NopPort discards everything. Used when notifications are disabled.
type NopPort struct{}

func (NopPort) RequestPermission() bool                         { return true }
func (NopPort) Send(int, string, string) error                  { return nil }
func (NopPort) ScheduleAt(int, string, string, time.Time) error { return nil }
func (NopPort) CancelAll() error                                { return nil }

// Scheduler drives milestone notifications off the once-per-second elapsed
// tick. It re-derives the whole plan from current state every tick; the
// fired set keeps each milestone to a single delivery per fast, and the
// deferred set keeps each upcoming milestone from being handed to the
// platform more than once.
type Scheduler struct {
	port Port

	fired     map[int]bool
	deferred  map[int]bool
	nextID    int
	prevStart time.Time
	havePrev  bool
}

func NewScheduler(port Port) *Scheduler {
	return &Scheduler{
		port:     port,
		fired:    make(map[int]bool),
		deferred: make(map[int]bool),
		nextID:   1,
	}
}

// Tick runs one scheduling pass. Call once per second while a fast is
// active, and once with fasting=false when it ends (or on teardown) so
// pending platform notifications get cancelled.
func (s *Scheduler) Tick(now time.Time, fasting bool, startTime time.Time, goalSeconds, elapsedSeconds int64) {
	if !fasting {
		s.reset()
		return
	}
	if startTime.IsZero() || goalSeconds <= 0 {
		return
	}

	// A different start time means a new fast: drop everything the
	// previous one scheduled before planning for this one.
	if !s.havePrev || !startTime.Equal(s.prevStart) {
		s.reset()
		s.prevStart = startTime
		s.havePrev = true
	}

	if !s.port.RequestPermission() {
		// Skipped this cycle; re-attempted on the next tick.
		return
	}

	plan := ComputeSchedule(startTime, goalSeconds, elapsedSeconds, now, s.fired)

	for _, m := range plan.FireNow {
		id := s.nextID
		s.nextID++
		if err := s.port.Send(id, m.Title(), m.Message); err != nil {
			// Left unfired: eligible again next tick.
			continue
		}
		s.fired[m.Percent] = true
	}

	for _, d := range plan.Later {
		if s.deferred[d.Milestone.Percent] {
			continue
		}
		id := s.nextID
		s.nextID++
		if err := s.port.ScheduleAt(id, d.Milestone.Title(), d.Milestone.Message, d.At); err != nil {
			continue
		}
		s.deferred[d.Milestone.Percent] = true
	}
}

// Fired reports whether the milestone with the given percent has been
// delivered for the current fast.
func (s *Scheduler) Fired(percent int) bool {
	return s.fired[percent]
}

func (s *Scheduler) reset() {
	s.port.CancelAll()
	s.fired = make(map[int]bool)
	s.deferred = make(map[int]bool)
	s.nextID = 1
	s.prevStart = time.Time{}
	s.havePrev = false
}

// Package schedule turns step moments into wall clock transitions.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDegenerateTimeline = errors.New("degenerate timeline")

	// ErrSchedulingRace means a callback was delivered for a session that
	// is no longer current. This is a programming error.
	ErrSchedulingRace = errors.New("scheduling race")
)

type Callbacks struct {
	OnPrimary  func(index int)
	OnMidpoint func(index int)
	OnFinish   func(cancelled bool)
}

// Schedule holds the offsets from session start of every transition.
// Primary[i] is when step i+1 becomes the target, step 0 is the target
// from the start. Midpoint[i] is the judgement deadline of step i.
type Schedule struct {
	Primary  []time.Duration
	Midpoint []time.Duration
	Finish   time.Duration
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

// Offset is the time from session start at which moment is due
func Offset(moment, msPerBeatUnit float64) time.Duration {
	return ms(moment * msPerBeatUnit)
}

func Times(moments []float64, msPerBeatUnit float64, finishDelay time.Duration) (Schedule, error) {
	n := len(moments)
	if n < 2 {
		return Schedule{}, fmt.Errorf("%w: %d steps", ErrDegenerateTimeline, n)
	}

	abs := make([]float64, n)
	for i, m := range moments {
		abs[i] = m * msPerBeatUnit
	}

	mid := make([]float64, n)
	for i := 0; i < n-1; i++ {
		mid[i] = (abs[i] + abs[i+1]) / 2
	}
	// Mirror the last gap so the final step gets a symmetric window
	mid[n-1] = abs[n-1] + (abs[n-1] - mid[n-2])

	s := Schedule{
		Primary:  make([]time.Duration, n-1),
		Midpoint: make([]time.Duration, n),
		Finish:   ms(abs[n-1]) + finishDelay,
	}
	for i := 1; i < n; i++ {
		s.Primary[i-1] = ms(abs[i])
	}
	for i, m := range mid {
		s.Midpoint[i] = ms(m)
	}
	return s, nil
}

type Handle struct {
	generation uint64
	schedule   Schedule
	timers     []Timer
	callbacks  Callbacks
	done       bool
}

func (h *Handle) Schedule() Schedule {
	return h.schedule
}

// Done reports whether the session finished or was cancelled
func (h *Handle) Done() bool {
	return h.done
}

// Scheduler owns the outstanding timers of one session at a time. It is
// not safe for concurrent use, callbacks must be delivered serially.
type Scheduler struct {
	clock      Clock
	generation uint64

	// Stale counts callbacks that were suppressed after cancellation
	Stale uint64
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

func (s *Scheduler) Generation() uint64 {
	return s.generation
}

func (s *Scheduler) current(h *Handle) bool {
	if h.done || h.generation != s.generation {
		s.Stale++
		return false
	}
	return true
}

// Schedule starts the timers for a new session. Time zero is now.
// Starting a new session makes every callback of the previous one stale.
func (s *Scheduler) Schedule(moments []float64, msPerBeatUnit float64, finishDelay time.Duration, cb Callbacks) (*Handle, error) {
	return s.ScheduleAt(s.clock.Now(), moments, msPerBeatUnit, finishDelay, cb)
}

// ScheduleAt is Schedule with time zero at origin on the clock, which may
// lie in the past. Transitions that are already due fire immediately.
func (s *Scheduler) ScheduleAt(origin time.Duration, moments []float64, msPerBeatUnit float64, finishDelay time.Duration, cb Callbacks) (*Handle, error) {
	times, err := Times(moments, msPerBeatUnit, finishDelay)
	if nil != err {
		return nil, err
	}
	lag := s.clock.Now() - origin

	s.generation++
	h := &Handle{
		generation: s.generation,
		schedule:   times,
		callbacks:  cb,
		timers:     make([]Timer, 0, len(times.Primary)+len(times.Midpoint)+1),
	}

	for i, t := range times.Primary {
		index := i + 1
		h.timers = append(h.timers, s.clock.AfterFunc(t-lag, func() {
			if s.current(h) && nil != cb.OnPrimary {
				cb.OnPrimary(index)
			}
		}))
	}
	for i, t := range times.Midpoint {
		index := i
		h.timers = append(h.timers, s.clock.AfterFunc(t-lag, func() {
			if s.current(h) && nil != cb.OnMidpoint {
				cb.OnMidpoint(index)
			}
		}))
	}
	h.timers = append(h.timers, s.clock.AfterFunc(times.Finish-lag, func() {
		if !s.current(h) {
			return
		}
		s.release(h)
		if nil != cb.OnFinish {
			cb.OnFinish(false)
		}
	}))

	return h, nil
}

func (s *Scheduler) release(h *Handle) {
	h.done = true
	for _, t := range h.timers {
		t.Stop()
	}
	h.timers = nil
	if h.generation == s.generation {
		s.generation++
	}
}

// Cancel stops every outstanding timer of the session. It is safe to call
// more than once, OnFinish is only ever invoked once per handle.
func (s *Scheduler) Cancel(h *Handle, invokeFinish bool) {
	if nil == h || h.done {
		return
	}
	s.release(h)
	if invokeFinish && nil != h.callbacks.OnFinish {
		h.callbacks.OnFinish(true)
	}
}

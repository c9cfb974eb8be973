package schedule

import (
	"container/heap"
	"time"
)

type Timer interface {
	// Stop prevents the timer from firing, it reports false if the
	// timer already fired or was stopped
	Stop() bool
}

// Clock schedules single shot callbacks relative to now. Callbacks must
// be delivered serially in order of their deadline.
type Clock interface {
	Now() time.Duration
	AfterFunc(d time.Duration, f func()) Timer
}

// ManualClock only moves when told to. Due timers fire serially in
// order of their deadline, ties fire in the order they were created.
type ManualClock struct {
	now     time.Duration
	seq     uint64
	pending timerQueue
}

// timer is an entry of a timerQueue, shared by the clocks of this package
type timer struct {
	at      time.Duration
	seq     uint64
	f       func()
	index   int
	stopped bool
	fired   bool
	stop    func(*timer) bool
}

func (t *timer) Stop() bool {
	return t.stop(t)
}

// remove takes t out of q unless it already fired or was stopped
func (q *timerQueue) remove(t *timer) bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	heap.Remove(q, t.index)
	return true
}

func (c *ManualClock) Now() time.Duration {
	return c.now
}

// AfterFunc fires f once the clock reaches now+d. A negative d is a
// deadline in the past, it fires before timers that are due now.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.seq++
	t := &timer{at: c.now + d, seq: c.seq, f: f, stop: c.pending.remove}
	heap.Push(&c.pending, t)
	return t
}

// Pending is the number of timers still waiting to fire
func (c *ManualClock) Pending() int {
	return len(c.pending)
}

// Advance moves the clock forward by d, firing every timer that
// becomes due on the way, including timers created by callbacks.
func (c *ManualClock) Advance(d time.Duration) {
	c.Set(c.now + d)
}

// Set moves the clock to an absolute offset, it never moves backwards
func (c *ManualClock) Set(target time.Duration) {
	for len(c.pending) > 0 && c.pending[0].at <= target {
		t := heap.Pop(&c.pending).(*timer)
		t.fired = true
		if t.at > c.now {
			c.now = t.at
		}
		t.f()
	}
	if target > c.now {
		c.now = target
	}
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

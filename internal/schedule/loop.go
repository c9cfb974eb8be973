package schedule

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Loop is the single execution context everything in a session runs on.
// Timer callbacks and input are posted to it from other goroutines and
// executed one at a time by Run.
type Loop struct {
	start time.Time

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	// Timers wait here in deadline order, a single runtime timer is
	// armed for the earliest one
	timers timerQueue
	seq    uint64
	alarm  *time.Timer

	// Called after every batch of work, usually to flush a renderer
	AfterBatch func()
}

func NewLoop() *Loop {
	return &Loop{
		start: time.Now(),
		wake:  make(chan struct{}, 1),
	}
}

// Now is the monotonic offset since the loop was created
func (l *Loop) Now() time.Duration {
	return time.Since(l.start)
}

func (l *Loop) Post(f func()) {
	l.mu.Lock()
	l.queue = append(l.queue, f)
	l.mu.Unlock()
	l.notify()
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc fires f on the loop after d has elapsed. Timers that are
// due together run in order of their deadline, ties in creation order.
// A negative d orders the timer before those due now.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	t := &timer{at: l.Now() + d, seq: l.seq, f: f, stop: l.stop}
	heap.Push(&l.timers, t)
	if l.timers[0] == t {
		l.arm()
	}
	return t
}

func (l *Loop) stop(t *timer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timers.remove(t)
}

// arm sets the alarm for the earliest timer, l.mu must be held
func (l *Loop) arm() {
	if len(l.timers) == 0 {
		return
	}
	d := l.timers[0].at - l.Now()
	if nil == l.alarm {
		l.alarm = time.AfterFunc(d, l.ring)
		return
	}
	l.alarm.Reset(d)
}

// ring moves every due timer onto the queue in deadline order
func (l *Loop) ring() {
	l.mu.Lock()
	now := l.Now()
	due := false
	for len(l.timers) > 0 && l.timers[0].at <= now {
		t := heap.Pop(&l.timers).(*timer)
		t.fired = true
		l.queue = append(l.queue, t.f)
		due = true
	}
	l.arm()
	l.mu.Unlock()
	if due {
		l.notify()
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, f := range batch {
			f()
		}
	}
}

// Run executes posted work until the context is cancelled
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// Work posted before cancellation still runs
			l.drain()
			return ctx.Err()
		case <-l.wake:
			l.drain()
			if nil != l.AfterBatch {
				l.AfterBatch()
			}
		}
	}
}

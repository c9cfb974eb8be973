package input

import "sync"

// sink hands raw input to a channel until it is closed, so that readers
// never block on a consumer that went away
type sink struct {
	events chan<- Raw
	done   chan struct{}
	once   sync.Once
}

func newSink(events chan<- Raw) *sink {
	return &sink{events: events, done: make(chan struct{})}
}

// send reports false once the sink is closed
func (s *sink) send(raw Raw) bool {
	select {
	case s.events <- raw:
		return true
	case <-s.done:
		return false
	}
}

func (s *sink) close() {
	s.once.Do(func() { close(s.done) })
}

package game

import (
	"time"
)

// Event is a single timed record from the event stream.
// Moment is a beat position measured in whole notes from the start.
type Event struct {
	Moment   float64
	Lane     Lane
	Kind     Kind
	Duration float64
}

type Step struct {
	Moment float64
	Marker Handle
	Items  []*Item
}

// Playable reports whether any item in this step expects input
func (s *Step) Playable() bool {
	for _, item := range s.Items {
		if item.IsPlayed() {
			return true
		}
	}
	return false
}

// Item returns the item in this step for the given lane, or nil
func (s *Step) Item(lane Lane) *Item {
	for _, item := range s.Items {
		if item.Lane == lane {
			return item
		}
	}
	return nil
}

// InputRecord is one raw input reduced to the lanes it addresses
type InputRecord struct {
	Lanes     []Lane
	Timestamp time.Duration // Monotonic, same origin as the session start
}

// Package input classifies raw key presses, touches and midi notes
// into the lanes a step can expect input on.
package input

import (
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

type Source uint8

const (
	Keyboard Source = iota
	Touch
	Midi
)

type Raw struct {
	Source Source
	Key    rune
	Escape bool

	// Touch position and the width of the surface it happened on
	X, Width float64

	Note uint8

	Time time.Duration
}

type Classifier struct {
	Keys map[rune]game.Lane

	// Midi notes below the split are played by the left hand
	MidiSplit uint8
}

func NewClassifier(left, right string) *Classifier {
	c := &Classifier{Keys: map[rune]game.Lane{}, MidiSplit: 60}
	for _, r := range left {
		c.Keys[r] = game.LeftHand
	}
	for _, r := range right {
		c.Keys[r] = game.RightHand
	}
	return c
}

// Classify never fails, unknown input only addresses the universal lane
func (c *Classifier) Classify(raw Raw) []game.Lane {
	lanes := []game.Lane{game.AnyHand}
	switch raw.Source {
	case Keyboard:
		if lane, ok := c.Keys[raw.Key]; ok {
			lanes = append(lanes, lane)
		}
	case Touch:
		if raw.Width <= 0 {
			break
		}
		if raw.X/raw.Width > 0.5 {
			lanes = append(lanes, game.RightHand)
		} else {
			lanes = append(lanes, game.LeftHand)
		}
	case Midi:
		if raw.Note < c.MidiSplit {
			lanes = append(lanes, game.LeftHand)
		} else {
			lanes = append(lanes, game.RightHand)
		}
	}
	return lanes
}

func (c *Classifier) Record(raw Raw) game.InputRecord {
	return game.InputRecord{Lanes: c.Classify(raw), Timestamp: raw.Time}
}

// Hub fans classified input out to whoever is subscribed. It is meant
// to be used from a single goroutine, the session loop.
type Hub struct {
	Classifier *Classifier

	next        int
	subscribers map[int]func(game.InputRecord)
}

func NewHub(c *Classifier) *Hub {
	return &Hub{Classifier: c, subscribers: map[int]func(game.InputRecord){}}
}

func (h *Hub) Subscribe(f func(game.InputRecord)) func() {
	id := h.next
	h.next++
	h.subscribers[id] = f
	return func() {
		delete(h.subscribers, id)
	}
}

func (h *Hub) Subscribed() int {
	return len(h.subscribers)
}

func (h *Hub) Publish(raw Raw) {
	if len(h.subscribers) == 0 {
		return
	}
	record := h.Classifier.Record(raw)
	for _, f := range h.subscribers {
		f(record)
	}
}

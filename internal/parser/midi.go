package parser

import (
	"errors"
	"fmt"
	"io"
	"math"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const middleC = 60

// MidiParser turns a standard midi file into an event stream.
// Every quarter note gets a count, notes below middle C are
// assigned to the left hand and the rest to the right hand.
type MidiParser struct{}

func (p *MidiParser) laneForKey(key uint8) game.Lane {
	if key < middleC {
		return game.LeftHand
	}
	return game.RightHand
}

func (p *MidiParser) Parse(r io.Reader) ([]game.Event, error) {
	s, err := smf.ReadFrom(r)
	if nil != err {
		return nil, fmt.Errorf("unable to read midi file: %w", err)
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.New("midi file does not use metric ticks")
	}
	whole := 4 * float64(mt)

	// A sounding note is identified by its track, channel and key
	type voice struct {
		track   int
		channel uint8
		key     uint8
	}

	events := []game.Event{}
	open := map[voice]int{}
	var last uint64

	for ti, track := range s.Tracks {
		var ticks uint64
		for _, ev := range track {
			ticks += uint64(ev.Delta)
			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				open[voice{ti, ch, key}] = len(events)
				events = append(events, game.Event{
					Moment: float64(ticks) / whole,
					Lane:   p.laneForKey(key),
					Kind:   game.Note,
				})
				if ticks > last {
					last = ticks
				}
			case msg.GetNoteEnd(&ch, &key):
				v := voice{ti, ch, key}
				idx, ok := open[v]
				if !ok {
					continue
				}
				delete(open, v)
				events[idx].Duration = float64(ticks)/whole - events[idx].Moment
			}
		}
	}

	// Chords on one hand collapse into a single event
	events = p.dedupe(events)

	quarters := int(math.Floor(float64(last)/float64(mt))) + 1
	for i := 0; i < quarters; i++ {
		events = append(events, game.Event{
			Moment:   float64(i) / 4,
			Lane:     game.Counts,
			Kind:     game.Rest,
			Duration: 0.25,
		})
	}
	return events, nil
}

func (p *MidiParser) dedupe(events []game.Event) []game.Event {
	type key struct {
		moment float64
		lane   game.Lane
	}
	seen := map[key]bool{}
	out := make([]game.Event, 0, len(events))
	for _, e := range events {
		k := key{e.Moment, e.Lane}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

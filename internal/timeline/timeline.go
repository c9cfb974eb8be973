// Package timeline reduces a flat event stream to ordered steps.
package timeline

import (
	"errors"
	"fmt"
	"sort"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

var ErrMalformedTimeline = errors.New("malformed timeline")

type slot struct {
	moment float64
	lane   game.Lane
}

// Build groups events sharing a moment into one step each. Moments are
// compared exactly, events are expected to share a rational origin.
// Count events create a step without adding an item to it.
func Build(events []game.Event) ([]*game.Step, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrMalformedTimeline)
	}

	seen := make(map[slot]bool, len(events))
	byMoment := map[float64]*game.Step{}
	steps := []*game.Step{}

	for _, e := range events {
		key := slot{e.Moment, e.Lane}
		if seen[key] {
			return nil, fmt.Errorf("%w: two events for %v at moment %v", ErrMalformedTimeline, e.Lane, e.Moment)
		}
		seen[key] = true

		step, ok := byMoment[e.Moment]
		if !ok {
			step = &game.Step{Moment: e.Moment, Items: []*game.Item{}}
			byMoment[e.Moment] = step
			steps = append(steps, step)
		}
		if e.Lane == game.Counts {
			continue
		}
		step.Items = append(step.Items, &game.Item{
			Kind:     e.Kind,
			Lane:     e.Lane,
			Duration: e.Duration,
		})
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Moment < steps[j].Moment
	})
	return steps, nil
}

func Moments(steps []*game.Step) []float64 {
	moments := make([]float64, len(steps))
	for i, s := range steps {
		moments[i] = s.Moment
	}
	return moments
}

// Bind attaches display handles to the steps. markers is indexed by step
// and visual is called once per item.
func Bind(steps []*game.Step, markers []game.Handle, visual func(step int, item *game.Item) game.Handle) {
	for i, s := range steps {
		if i < len(markers) {
			s.Marker = markers[i]
		}
		if nil == visual {
			continue
		}
		for _, item := range s.Items {
			item.Visual = visual(i, item)
		}
	}
}

// Summary counts the playable notes and rests across the steps
func Summary(steps []*game.Step) (notes, rests int) {
	for _, s := range steps {
		for _, item := range s.Items {
			if item.IsPlayed() {
				notes++
			} else {
				rests++
			}
		}
	}
	return notes, rests
}

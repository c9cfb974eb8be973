package score

import (
	"fmt"
	"math"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

// Running is the average accuracy of a session. Every judged event adds
// one to the denominator.
type Running struct {
	Numerator   float64
	Denominator int
}

func (r *Running) Reset() {
	r.Numerator = 0
	r.Denominator = 0
}

// Add folds a raw percentage, where 100 is perfect, into the average.
// Overshooting and undershooting count the same.
func (r *Running) Add(raw float64) float64 {
	v := 100 - math.Abs(raw-100)
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	r.Numerator += v
	r.Denominator++
	return v
}

// Percentage is undefined until something was judged
func (r *Running) Percentage() (float64, bool) {
	if r.Denominator == 0 {
		return 0, false
	}
	return r.Numerator / float64(r.Denominator), true
}

func (r *Running) String() string {
	p, ok := r.Percentage()
	if !ok {
		return "Score: "
	}
	return fmt.Sprintf("Score: %.2f%%", p)
}

type Input struct {
	Lane   game.Lane
	Offset time.Duration
}

type History struct {
	ID         string
	Sum        string
	Tempo      game.Tempo
	Percentage float64
	Hits       int
	Misses     int
	Redundant  int
	Played     time.Time
	Inputs     []Input
}

type Counts struct {
	Hits, Misses, Redundant int
}

func Count(judgements []game.Judgement) Counts {
	var c Counts
	for _, j := range judgements {
		switch j.Outcome {
		case game.Hit:
			c.Hits++
		case game.Miss:
			c.Misses++
		case game.Redundant:
			c.Redundant++
		}
	}
	return c
}

// Inputs extracts the timing offsets of every hit
func Inputs(judgements []game.Judgement) []Input {
	inputs := []Input{}
	for _, j := range judgements {
		if j.Outcome == game.Hit {
			inputs = append(inputs, Input{Lane: j.Lane, Offset: j.Offset})
		}
	}
	return inputs
}

// Stats is the mean and sample standard deviation of the hit offsets
func Stats(inputs []Input) (mean, stdev time.Duration) {
	if len(inputs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, i := range inputs {
		sum += float64(i.Offset)
	}
	m := sum / float64(len(inputs))
	if len(inputs) == 1 {
		return time.Duration(m), 0
	}
	v := 0.0
	for _, i := range inputs {
		xi := float64(i.Offset) - m
		v += xi * xi
	}
	v /= float64(len(inputs) - 1)
	return time.Duration(m), time.Duration(math.Sqrt(v))
}

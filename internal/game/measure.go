package game

import (
	"math"
	"time"
)

type Tempo struct {
	BPM         float64
	BeatsPerBar int
}

// BeatLength is the duration of a single beat
func (t Tempo) BeatLength() time.Duration {
	return time.Duration(60 / t.BPM * float64(time.Second))
}

// MsPerBeatUnit converts a whole note moment into milliseconds
func (t Tempo) MsPerBeatUnit() float64 {
	return float64(t.BeatsPerBar) * float64(t.BeatLength()) / float64(time.Millisecond)
}

// Window is the tolerance used to scale timing errors, a quarter of a beat
func (t Tempo) Window() time.Duration {
	return t.BeatLength() / 4
}

// At converts a moment to an offset from the start of the session
func (t Tempo) At(moment float64) time.Duration {
	return time.Duration(moment * t.MsPerBeatUnit() * float64(time.Millisecond))
}

// Ticks lists a metronome click for every beat of every bar up to and
// including the bar containing lastMoment
func (t Tempo) Ticks(lastMoment float64) []time.Duration {
	bars := int(math.Ceil(lastMoment))
	if bars < 1 {
		bars = 1
	}
	n := bars * t.BeatsPerBar
	beat := t.BeatLength()
	ticks := make([]time.Duration, n)
	for i := range ticks {
		ticks[i] = time.Duration(i) * beat
	}
	return ticks
}

package audio

import (
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	clickLength = 30 * time.Millisecond
	accentFreq  = 1760.0
	clickFreq   = 880.0
)

// BeepMetronome plays ticks on the default output device
type BeepMetronome struct {
	sampleRate  beep.SampleRate
	beatsPerBar int
	ctrl        *beep.Ctrl
}

func NewBeepMetronome(sampleRate beep.SampleRate, beatsPerBar int) (*BeepMetronome, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/30)); nil != err {
		return nil, err
	}
	return &BeepMetronome{sampleRate: sampleRate, beatsPerBar: beatsPerBar}, nil
}

// click is a short decaying sine
func click(sr beep.SampleRate, freq float64) beep.Streamer {
	total := sr.N(clickLength)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= total {
			return 0, false
		}
		for i := range samples {
			if pos >= total {
				break
			}
			t := float64(pos) / float64(sr)
			decay := 1 - float64(pos)/float64(total)
			v := 0.5 * decay * math.Sin(2*math.Pi*freq*t)
			samples[i][0], samples[i][1] = v, v
			pos++
			n++
		}
		return n, true
	})
}

// Clicks lays out a click at every tick offset, the first beat of each
// bar is accented
func Clicks(sr beep.SampleRate, beatsPerBar int, ticks []time.Duration) beep.Streamer {
	parts := []beep.Streamer{}
	length := sr.N(clickLength)
	pos := 0
	for i, tick := range ticks {
		at := sr.N(tick)
		if at > pos {
			parts = append(parts, beep.Silence(at-pos))
			pos = at
		}
		freq := clickFreq
		if beatsPerBar > 0 && i%beatsPerBar == 0 {
			freq = accentFreq
		}
		parts = append(parts, click(sr, freq))
		pos += length
	}
	return beep.Seq(parts...)
}

func (m *BeepMetronome) Start(ticks []time.Duration) {
	m.Stop()
	ctrl := &beep.Ctrl{Streamer: Clicks(m.sampleRate, m.beatsPerBar, ticks)}
	m.ctrl = ctrl
	speaker.Play(ctrl)
}

func (m *BeepMetronome) Stop() {
	if nil == m.ctrl {
		return
	}
	speaker.Lock()
	m.ctrl.Streamer = nil
	speaker.Unlock()
	m.ctrl = nil
}

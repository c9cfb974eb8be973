package judge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"git.lost.host/meutraa/sightbeat/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 240 bpm in 4/4 makes a whole note last one second
var testTempo = game.Tempo{BPM: 240, BeatsPerBar: 4}

type spy struct {
	emphasis map[game.Handle]game.Emphasis
	colours  map[game.Handle]game.Colour
	score    string
	raised   []game.Handle
}

func newSpy() *spy {
	return &spy{emphasis: map[game.Handle]game.Emphasis{}, colours: map[game.Handle]game.Colour{}}
}

func (s *spy) SetMarkerEmphasis(marker game.Handle, e game.Emphasis) {
	s.emphasis[marker] = e
	if e == game.Emphasized {
		s.raised = append(s.raised, marker)
	}
}

func (s *spy) SetItemColour(visual game.Handle, c game.Colour) { s.colours[visual] = c }
func (s *spy) SetScore(text string)                            { s.score = text }

type metronome struct {
	starts, stops int
	ticks         []time.Duration
}

func (m *metronome) Start(ticks []time.Duration) { m.starts++; m.ticks = ticks }
func (m *metronome) Stop()                       { m.stops++ }

type inputs struct {
	subscribed int
}

func (i *inputs) Subscribe(func(game.InputRecord)) func() {
	i.subscribed++
	return func() { i.subscribed-- }
}

// steps builds one step per moment with a single item on the given lane
func steps(kind game.Kind, lane game.Lane, moments ...float64) []*game.Step {
	out := []*game.Step{}
	for i, m := range moments {
		out = append(out, &game.Step{
			Moment: m,
			Marker: fmt.Sprintf("m%d", i),
			Items: []*game.Item{{
				Kind:   kind,
				Lane:   lane,
				Visual: fmt.Sprintf("i%d", i),
			}},
		})
	}
	return out
}

type fixture struct {
	clock   *schedule.ManualClock
	engine  *Engine
	display *spy
	results []Result
}

func newFixture(t *testing.T, s []*game.Step) *fixture {
	f := &fixture{clock: &schedule.ManualClock{}, display: newSpy()}
	opts := DefaultOptions(testTempo)
	opts.Display = f.display
	opts.OnFinish = func(r Result) { f.results = append(f.results, r) }
	e, err := New(s, f.clock, opts)
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) press(at time.Duration, lanes ...game.Lane) {
	f.clock.Set(at)
	f.engine.Input(game.InputRecord{Lanes: append([]game.Lane{game.AnyHand}, lanes...), Timestamp: at})
}

func TestNewRejectsDegenerateTimeline(t *testing.T) {
	_, err := New(steps(game.Note, game.RightHand, 0), &schedule.ManualClock{}, DefaultOptions(testTempo))
	assert.True(t, errors.Is(err, schedule.ErrDegenerateTimeline))
}

func TestScenarioTwoHitsOneMiss(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.RightHand, 0, 1, 2))
	require.NoError(t, f.engine.Start(0))

	f.press(0, game.RightHand)
	f.press(1000*time.Millisecond, game.RightHand)
	f.clock.Set(5 * time.Second)

	assert := assert.New(t)
	assert.False(f.engine.Running())
	require.Len(t, f.results, 1)
	r := f.results[0]
	assert.False(r.Cancelled)
	require.Len(t, r.Judgements, 3)
	assert.Equal(game.Hit, r.Judgements[0].Outcome)
	assert.Equal(100.0, r.Judgements[0].Percent)
	assert.Equal(game.Hit, r.Judgements[1].Outcome)
	assert.Equal(100.0, r.Judgements[1].Percent)
	assert.Equal(game.Miss, r.Judgements[2].Outcome)
	assert.Equal(2, r.Judgements[2].Step)
	assert.InDelta(200.0/3, r.Percentage, 1e-9)

	assert.Equal(game.Correct, f.display.colours["i0"])
	assert.Equal(game.Correct, f.display.colours["i1"])
	assert.Equal(game.Missed, f.display.colours["i2"])
	assert.Equal("Score: 66.67%", f.display.score)
}

func TestPrimaryChangesAdvanceByOne(t *testing.T) {
	f := newFixture(t, steps(game.Rest, game.LeftHand, 0, 0.25, 0.5, 0.75, 1))
	require.NoError(t, f.engine.Start(0))

	cursors := []int{f.engine.Cursor()}
	for at := time.Duration(0); at < 3*time.Second; at += 10 * time.Millisecond {
		f.clock.Set(at)
		if c := f.engine.Cursor(); c != cursors[len(cursors)-1] {
			cursors = append(cursors, c)
		}
		assert.True(t, f.engine.Cursor() >= 0 && f.engine.Cursor() < 5)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, cursors)
	assert.Equal(t, []game.Handle{"m0", "m1", "m2", "m3", "m4"}, f.display.raised)
	assert.Equal(t, game.Normal, f.display.emphasis["m4"])
}

func TestMissRecordedExactlyOnce(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.LeftHand, 0, 1))
	require.NoError(t, f.engine.Start(0))

	// Right hand input does not count for a left hand note
	f.press(10*time.Millisecond, game.RightHand)
	f.clock.Set(10 * time.Second)

	require.Len(t, f.results, 1)
	misses := 0
	for _, j := range f.results[0].Judgements {
		assert.Equal(t, game.Miss, j.Outcome)
		misses++
	}
	assert.Equal(t, 2, misses)
	p, ok := f.engine.Percentage()
	assert.True(t, ok)
	assert.Equal(t, 0.0, p)
}

func TestUnmatchedInputIsIgnored(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.LeftHand, 0, 1, 2))
	require.NoError(t, f.engine.Start(0))

	f.press(0, game.RightHand)
	f.press(5*time.Millisecond, game.Lane("feet"))
	_, ok := f.engine.Percentage()
	assert.False(t, ok)
	assert.Empty(t, f.engine.Judgements())
	assert.Equal(t, "Score: ", f.display.score)
}

func TestInputWhileIdleIsIgnored(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.AnyHand, 0, 1))
	f.press(0)
	assert.Empty(t, f.engine.Judgements())
}

func TestLateInputDoesNotCreditClosedStep(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.RightHand, 0, 1, 2))
	require.NoError(t, f.engine.Start(0))

	// After the first midpoint, before the second step is the cursor
	f.press(600*time.Millisecond, game.RightHand)

	assert := assert.New(t)
	js := f.engine.Judgements()
	require.Len(t, js, 2)
	assert.Equal(game.Miss, js[0].Outcome)
	assert.Equal(0, js[0].Step)
	assert.Equal(game.Hit, js[1].Outcome)
	assert.Equal(1, js[1].Step)
	assert.Equal(-400*time.Millisecond, js[1].Offset)
	assert.Equal(0, f.engine.Cursor())
	assert.Equal(1, f.engine.Target())
}

func TestRepeatedInputJudgedOnce(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.RightHand, 0, 1))
	require.NoError(t, f.engine.Start(0))
	f.press(0, game.RightHand)
	f.press(10*time.Millisecond, game.RightHand)
	assert.Len(t, f.engine.Judgements(), 1)
}

func TestPlayedRest(t *testing.T) {
	f := newFixture(t, steps(game.Rest, game.RightHand, 0, 1))
	require.NoError(t, f.engine.Start(0))
	f.press(0, game.RightHand)

	js := f.engine.Judgements()
	require.Len(t, js, 1)
	assert.Equal(t, game.Redundant, js[0].Outcome)
	p, _ := f.engine.Percentage()
	assert.Equal(t, 50.0, p)

	f.clock.Set(10 * time.Second)
	require.Len(t, f.results, 1)
	assert.Len(t, f.results[0].Judgements, 1)
}

func TestEarlyAndLateColours(t *testing.T) {
	// The window is a quarter beat, 62.5ms
	f := newFixture(t, steps(game.Note, game.AnyHand, 0, 1, 2))
	f.clock.Set(time.Second)
	require.NoError(t, f.engine.Start(time.Second))

	f.press(time.Second-18750*time.Microsecond)
	f.press(2*time.Second+18750*time.Microsecond)

	js := f.engine.Judgements()
	require.Len(t, js, 2)
	assert.InDelta(t, 70, js[0].Percent, 1e-9)
	assert.Equal(t, game.Early, js[0].Colour)
	assert.InDelta(t, 130, js[1].Percent, 1e-9)
	assert.Equal(t, game.Late, js[1].Colour)
	p, _ := f.engine.Percentage()
	assert.InDelta(t, 70, p, 1e-9)
}

func TestColourBoundaries(t *testing.T) {
	opts := DefaultOptions(testTempo)
	tests := map[float64]game.Colour{
		0:      game.Early,
		70:     game.Early,
		84.999: game.Early,
		85:     game.Correct,
		100:    game.Correct,
		114.99: game.Correct,
		115:    game.Late,
		130:    game.Late,
	}
	for percent, expected := range tests {
		assert.Equal(t, expected, opts.Colour(percent), "percent %v", percent)
	}
}

func TestScoreStaysInBounds(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.AnyHand, 0, 1, 2, 3))
	require.NoError(t, f.engine.Start(0))

	inBounds := func() {
		p, ok := f.engine.Percentage()
		assert.True(t, ok)
		assert.True(t, p >= 0 && p <= 100, "percentage %v", p)
	}

	f.press(400 * time.Millisecond)
	inBounds()
	f.press(1 * time.Second)
	inBounds()
	f.press(1600 * time.Millisecond)
	inBounds()
	f.clock.Set(10 * time.Second)
	inBounds()
}

func TestStopFinishesOnceAsCancelled(t *testing.T) {
	m := &metronome{}
	in := &inputs{}
	f := &fixture{clock: &schedule.ManualClock{}, display: newSpy()}
	opts := DefaultOptions(testTempo)
	opts.Display = f.display
	opts.Metronome = m
	opts.Inputs = in
	opts.OnFinish = func(r Result) { f.results = append(f.results, r) }
	e, err := New(steps(game.Note, game.RightHand, 0, 1, 2), f.clock, opts)
	require.NoError(t, err)

	require.NoError(t, e.Start(0))
	assert.Equal(t, 1, in.subscribed)
	assert.Len(t, m.ticks, 8)

	f.clock.Set(1200 * time.Millisecond)
	e.Stop()
	e.Stop()
	f.clock.Set(10 * time.Second)

	require.Len(t, f.results, 1)
	assert.True(t, f.results[0].Cancelled)
	// Only the first step was judged before the stop
	assert.Len(t, f.results[0].Judgements, 1)
	assert.False(t, e.Running())
	assert.Equal(t, 0, in.subscribed)
	assert.Equal(t, 1, m.stops)
}

type leakyClock struct {
	*schedule.ManualClock
}

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) schedule.Timer {
	c.ManualClock.AfterFunc(d, f)
	return leakyTimer{}
}

func TestRestartIgnoresStaleCallbacks(t *testing.T) {
	clock := leakyClock{&schedule.ManualClock{}}
	results := []Result{}
	opts := DefaultOptions(testTempo)
	opts.OnFinish = func(r Result) { results = append(results, r) }
	e, err := New(steps(game.Note, game.RightHand, 0, 1, 2), clock, opts)
	require.NoError(t, err)

	require.NoError(t, e.Start(0))
	clock.Set(700 * time.Millisecond)
	// Starting again stops the running session first
	require.NoError(t, e.Start(700*time.Millisecond))
	require.Len(t, results, 1)
	assert.True(t, results[0].Cancelled)
	assert.Equal(t, 0, e.Cursor())

	// A stale callback would panic with a scheduling race
	assert.NotPanics(t, func() { clock.Set(10 * time.Second) })
	require.Len(t, results, 2)
	assert.False(t, results[1].Cancelled)
	assert.Len(t, results[1].Judgements, 3)
	assert.NotZero(t, e.Scheduler().Stale)
}

func TestStartWhileRunningResetsScore(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.AnyHand, 0, 1))
	require.NoError(t, f.engine.Start(0))
	f.press(0)
	require.NoError(t, f.engine.Start(0))
	_, ok := f.engine.Percentage()
	assert.False(t, ok)
	assert.Equal(t, game.Neutral, f.display.colours["i0"])
}

func TestTimersFollowOriginNotStart(t *testing.T) {
	f := newFixture(t, steps(game.Note, game.RightHand, 0, 1, 2))
	// The session starts 50ms after the key press that began it
	f.clock.Set(1050 * time.Millisecond)
	require.NoError(t, f.engine.Start(time.Second))

	f.clock.Set(1499 * time.Millisecond)
	assert.Equal(t, 0, f.engine.Target())
	f.clock.Set(1500 * time.Millisecond)
	assert.Equal(t, 1, f.engine.Target())
	f.clock.Set(1999 * time.Millisecond)
	assert.Equal(t, 0, f.engine.Cursor())
	f.clock.Set(2 * time.Second)
	assert.Equal(t, 1, f.engine.Cursor())
}

func TestDenseStepsOnLoop(t *testing.T) {
	l := schedule.NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := []Result{}
	opts := DefaultOptions(testTempo)
	opts.OnFinish = func(r Result) {
		results = append(results, r)
		cancel()
	}
	// One microsecond apart
	e, err := New(steps(game.Note, game.RightHand, 0, 1e-6, 2e-6, 3e-6, 4e-6, 5e-6), l, opts)
	require.NoError(t, err)
	require.NoError(t, e.Start(l.Now()))

	// Every transition but the finish is overdue once the loop runs
	time.Sleep(5 * time.Millisecond)
	assert.NotPanics(t, func() { l.Run(ctx) })

	require.Len(t, results, 1)
	assert.False(t, results[0].Cancelled)
	require.Len(t, results[0].Judgements, 6)
	for i, j := range results[0].Judgements {
		assert.Equal(t, game.Miss, j.Outcome)
		assert.Equal(t, i, j.Step)
	}
}

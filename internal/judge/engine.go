// Package judge runs a session: it follows the schedule, judges input
// against the open step and keeps the running score.
package judge

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"git.lost.host/meutraa/sightbeat/internal/schedule"
	"git.lost.host/meutraa/sightbeat/internal/score"
	"git.lost.host/meutraa/sightbeat/internal/timeline"
)

type Display interface {
	SetMarkerEmphasis(marker game.Handle, e game.Emphasis)
	SetItemColour(visual game.Handle, c game.Colour)
	SetScore(text string)
}

type Metronome interface {
	Start(ticks []time.Duration)
	Stop()
}

// Inputs delivers classified input while subscribed
type Inputs interface {
	Subscribe(func(game.InputRecord)) (unsubscribe func())
}

type Result struct {
	Judgements []game.Judgement
	Percentage float64
	Scored     bool
	Cancelled  bool
}

type Options struct {
	Tempo game.Tempo

	// Defaults to one beat
	FinishDelay time.Duration

	// Percent scores below Early are early, at or above Late are late
	Early, Late float64

	// Raw scores applied for a missed note and for input on a rest
	MissedNoteScore float64
	PlayedRestScore float64

	Display   Display
	Metronome Metronome
	Inputs    Inputs
	OnFinish  func(Result)
}

func DefaultOptions(tempo game.Tempo) Options {
	return Options{
		Tempo:           tempo,
		FinishDelay:     tempo.BeatLength(),
		Early:           85,
		Late:            115,
		MissedNoteScore: 0,
		PlayedRestScore: 50,
	}
}

type Engine struct {
	steps     []*game.Step
	moments   []float64
	targets   []time.Duration
	opts      Options
	scheduler *schedule.Scheduler

	handle      *schedule.Handle
	unsubscribe func()
	running     bool
	origin      time.Duration

	cursor    int             // Step currently emphasised
	window    int             // Step whose attempt window is open
	resolved  map[*game.Item]bool
	judged    []bool

	score      score.Running
	judgements []game.Judgement
}

// New validates the steps against the tempo, so that errors surface
// before a session can be started.
func New(steps []*game.Step, clock schedule.Clock, opts Options) (*Engine, error) {
	msPerUnit := opts.Tempo.MsPerBeatUnit()
	moments := timeline.Moments(steps)
	times, err := schedule.Times(moments, msPerUnit, opts.FinishDelay)
	if nil != err {
		return nil, err
	}
	targets := make([]time.Duration, len(steps))
	targets[0] = schedule.Offset(moments[0], msPerUnit)
	copy(targets[1:], times.Primary)

	if nil == opts.Display {
		opts.Display = nopDisplay{}
	}
	if nil == opts.Metronome {
		opts.Metronome = nopMetronome{}
	}

	return &Engine{
		steps:     steps,
		moments:   moments,
		targets:   targets,
		opts:      opts,
		scheduler: schedule.NewScheduler(clock),
		judged:    make([]bool, len(steps)),
	}, nil
}

func (e *Engine) Running() bool { return e.running }

func (e *Engine) Cursor() int { return e.cursor }

// Target is the step input is currently judged against, or -1 once
// every attempt window has closed
func (e *Engine) Target() int {
	if e.window >= len(e.steps) {
		return -1
	}
	return e.window
}

func (e *Engine) Percentage() (float64, bool) {
	return e.score.Percentage()
}

func (e *Engine) Judgements() []game.Judgement {
	return append([]game.Judgement(nil), e.judgements...)
}

// Scheduler exposes the scheduler, mostly to inspect the generation
func (e *Engine) Scheduler() *schedule.Scheduler {
	return e.scheduler
}

// Start begins a session at origin, the timestamp of now on the clock
// that input timestamps use. A running session is stopped first.
func (e *Engine) Start(origin time.Duration) error {
	if e.running {
		e.Stop()
	}

	e.origin = origin
	e.cursor = 0
	e.window = 0
	e.resolved = map[*game.Item]bool{}
	for i := range e.judged {
		e.judged[i] = false
	}
	e.score.Reset()
	e.judgements = nil

	for _, s := range e.steps {
		e.opts.Display.SetMarkerEmphasis(s.Marker, game.Normal)
		for _, item := range s.Items {
			if item.IsPlayed() {
				e.opts.Display.SetItemColour(item.Visual, game.Neutral)
			}
		}
	}
	e.opts.Display.SetMarkerEmphasis(e.steps[0].Marker, game.Emphasized)
	e.opts.Display.SetScore(e.score.String())

	handle, err := e.scheduler.ScheduleAt(
		origin,
		e.moments,
		e.opts.Tempo.MsPerBeatUnit(),
		e.opts.FinishDelay,
		schedule.Callbacks{
			OnPrimary:  e.onPrimaryChange,
			OnMidpoint: e.onMidpointChange,
			OnFinish:   e.onFinish,
		},
	)
	if nil != err {
		return err
	}
	e.handle = handle
	e.running = true

	if nil != e.opts.Inputs {
		e.unsubscribe = e.opts.Inputs.Subscribe(e.Input)
	}
	e.opts.Metronome.Start(e.opts.Tempo.Ticks(e.steps[len(e.steps)-1].Moment))
	return nil
}

// Stop cancels the session, finishing it as cancelled
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.scheduler.Cancel(e.handle, true)
}

func race(format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{schedule.ErrSchedulingRace}, args...)...))
}

func (e *Engine) onPrimaryChange(i int) {
	if !e.running {
		race("primary change %d while idle", i)
	}
	if i != e.cursor+1 {
		race("primary change %d after %d", i, e.cursor)
	}
	e.opts.Display.SetMarkerEmphasis(e.steps[e.cursor].Marker, game.Normal)
	e.cursor = i
	e.opts.Display.SetMarkerEmphasis(e.steps[e.cursor].Marker, game.Emphasized)
}

func (e *Engine) onMidpointChange(i int) {
	if !e.running {
		race("midpoint change %d while idle", i)
	}
	if i != e.window {
		race("midpoint change %d while step %d is open", i, e.window)
	}
	e.checkMisses(i)
	e.advance()
}

// advance closes the attempt window of the open step
func (e *Engine) advance() {
	e.window++
}

func (e *Engine) checkMisses(i int) {
	if e.judged[i] {
		return
	}
	e.judged[i] = true
	for _, item := range e.steps[i].Items {
		if !item.IsPlayed() || e.resolved[item] {
			continue
		}
		e.resolved[item] = true
		e.score.Add(e.opts.MissedNoteScore)
		e.opts.Display.SetItemColour(item.Visual, game.Missed)
		e.record(game.Judgement{Step: i, Lane: item.Lane, Outcome: game.Miss, Colour: game.Missed})
	}
}

func (e *Engine) onFinish(cancelled bool) {
	if !e.running {
		race("finish while idle")
	}
	if !cancelled {
		e.checkMisses(len(e.steps) - 1)
	}
	e.opts.Display.SetMarkerEmphasis(e.steps[e.cursor].Marker, game.Normal)

	e.opts.Metronome.Stop()
	if nil != e.unsubscribe {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.handle = nil
	e.running = false

	if nil != e.opts.OnFinish {
		p, ok := e.score.Percentage()
		e.opts.OnFinish(Result{
			Judgements: e.Judgements(),
			Percentage: p,
			Scored:     ok,
			Cancelled:  cancelled,
		})
	}
}

// Colour maps a percent score to the colour shown for a hit
func (o *Options) Colour(percent float64) game.Colour {
	switch {
	case percent < o.Early:
		return game.Early
	case percent < o.Late:
		return game.Correct
	}
	return game.Late
}

// Input judges a classified input against the open step. Lanes without
// an item in that step, and input while idle, are ignored.
func (e *Engine) Input(record game.InputRecord) {
	if !e.running || e.window >= len(e.steps) {
		return
	}
	step := e.steps[e.window]
	for _, lane := range record.Lanes {
		item := step.Item(lane)
		if nil == item || e.resolved[item] {
			continue
		}
		e.resolved[item] = true

		if !item.IsPlayed() {
			e.score.Add(e.opts.PlayedRestScore)
			e.record(game.Judgement{Step: e.window, Lane: lane, Outcome: game.Redundant, Colour: game.Neutral})
			continue
		}

		offset := record.Timestamp - e.origin - e.targets[e.window]
		percent := 100 + 100*float64(offset)/float64(e.opts.Tempo.Window())
		colour := e.opts.Colour(percent)
		e.score.Add(percent)
		e.opts.Display.SetItemColour(item.Visual, colour)
		e.record(game.Judgement{
			Step:    e.window,
			Lane:    lane,
			Outcome: game.Hit,
			Offset:  offset,
			Percent: percent,
			Colour:  colour,
		})
	}
}

func (e *Engine) record(j game.Judgement) {
	e.judgements = append(e.judgements, j)
	e.opts.Display.SetScore(e.score.String())
}

type nopDisplay struct{}

func (nopDisplay) SetMarkerEmphasis(game.Handle, game.Emphasis) {}
func (nopDisplay) SetItemColour(game.Handle, game.Colour)       {}
func (nopDisplay) SetScore(string)                              {}

type nopMetronome struct{}

func (nopMetronome) Start([]time.Duration) {}
func (nopMetronome) Stop()                 {}

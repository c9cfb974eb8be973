package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/sightbeat/internal/config"
	"git.lost.host/meutraa/sightbeat/internal/game"
	"git.lost.host/meutraa/sightbeat/internal/input"
	"git.lost.host/meutraa/sightbeat/internal/judge"
	"git.lost.host/meutraa/sightbeat/internal/parser"
	"git.lost.host/meutraa/sightbeat/internal/render"
	"git.lost.host/meutraa/sightbeat/internal/schedule"
	"git.lost.host/meutraa/sightbeat/internal/score"
	"git.lost.host/meutraa/sightbeat/internal/timeline"
)

type Program struct {
	Parser   parser.Parser
	Renderer render.Renderer
	Store    *score.Store

	// Optional, no clicks are played when nil
	Metronome judge.Metronome

	loop   *schedule.Loop
	hub    *input.Hub
	engine *judge.Engine
	quit   context.CancelFunc

	steps []*game.Step
	sum   string
	tempo game.Tempo

	// Set once a session ran to completion
	finished bool
}

func chartParser(file string) parser.Parser {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mid", ".midi", ".smf":
		return &parser.MidiParser{}
	}
	return &parser.DefaultParser{}
}

// loadChart parses and builds the steps of a chart file
func loadChart(psr parser.Parser, file string) ([]*game.Step, error) {
	events, err := parser.ParseFile(psr, file)
	if nil != err {
		return nil, fmt.Errorf("unable to parse %v: %w", file, err)
	}
	steps, err := timeline.Build(events)
	if nil != err {
		return nil, fmt.Errorf("unable to build timeline of %v: %w", file, err)
	}
	return steps, nil
}

func (p *Program) Init(chartFile string, loop *schedule.Loop) error {
	if nil == p.Parser {
		p.Parser = chartParser(chartFile)
	}
	steps, err := loadChart(p.Parser, chartFile)
	if nil != err {
		return err
	}
	p.steps = steps
	p.sum = score.Hash(steps)
	p.tempo = config.Tempo()
	p.loop = loop
	p.hub = input.NewHub(input.NewClassifier(*config.LeftKeys, *config.RightKeys))

	markers, visual := p.Renderer.Layout(steps)
	timeline.Bind(steps, markers, visual)

	opts := judge.DefaultOptions(p.tempo)
	opts.FinishDelay = config.Delay()
	opts.Early = *config.Early
	opts.Late = *config.Late
	opts.MissedNoteScore = *config.MissedNoteScore
	opts.PlayedRestScore = *config.PlayedRestScore
	opts.Display = p.Renderer
	opts.Metronome = p.Metronome
	opts.Inputs = p.hub
	opts.OnFinish = p.finish

	p.engine, err = judge.New(steps, loop, opts)
	if nil != err {
		return err
	}

	notes, rests := timeline.Summary(steps)
	log.Printf("Loaded %v: %v steps, %v notes, %v rests\n", chartFile, len(steps), notes, rests)
	p.Renderer.SetScore("Press any key to start, escape to quit")
	return nil
}

// Update handles a raw input on the loop. The first key starts a session,
// escape stops it, and once finished r restarts while anything else quits.
func (p *Program) Update(raw input.Raw) {
	switch {
	case p.engine.Running() && raw.Escape:
		p.engine.Stop()
	case p.engine.Running():
		p.hub.Publish(raw)
	case raw.Escape, p.finished && raw.Key != 'r':
		p.quit()
	default:
		if err := p.engine.Start(raw.Time); nil != err {
			log.Println("unable to start session", err)
			p.quit()
			return
		}
		// The key that starts the session also counts as input
		p.hub.Publish(raw)
	}
}

func (p *Program) finish(result judge.Result) {
	counts := score.Count(result.Judgements)
	log.Printf("Finished (cancelled %v): %.2f%% hits %v misses %v redundant %v\n",
		result.Cancelled, result.Percentage, counts.Hits, counts.Misses, counts.Redundant)

	if result.Cancelled || !result.Scored {
		return
	}
	p.finished = true
	p.Renderer.SetScore(fmt.Sprintf("Score: %.2f%%  (r to retry, any other key to quit)", result.Percentage))
	if nil == p.Store {
		return
	}
	if _, err := p.Store.Save(p.sum, p.tempo, result.Percentage, result.Judgements); nil != err {
		log.Println(err)
	}
}

func (p *Program) Run(ctx context.Context, events <-chan input.Raw) error {
	ctx, p.quit = context.WithCancel(ctx)
	defer p.quit()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-events:
				p.loop.Post(func() { p.Update(raw) })
			}
		}
	}()

	p.loop.AfterBatch = p.Renderer.Flush
	p.Renderer.Flush()
	err := p.loop.Run(ctx)
	p.engine.Stop()
	p.Renderer.Flush()
	if err == context.Canceled {
		return nil
	}
	return err
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/audio"
	"git.lost.host/meutraa/sightbeat/internal/config"
	"git.lost.host/meutraa/sightbeat/internal/input"
	"git.lost.host/meutraa/sightbeat/internal/render"
	"git.lost.host/meutraa/sightbeat/internal/schedule"
	"git.lost.host/meutraa/sightbeat/internal/score"
	"git.lost.host/meutraa/sightbeat/internal/theme"
	"github.com/dustin/go-humanize"
	"github.com/faiface/beep"
)

func main() {
	if err := run(os.Args[1:]); nil != err {
		log.Fatalln(err)
	}
}

func run(args []string) error {
	command, err := config.Parse(args)
	if nil != err {
		return err
	}
	switch command {
	case config.History.FullCommand():
		return history(*config.HistoryChart)
	default:
		return play(*config.PlayChart)
	}
}

func history(chartFile string) error {
	steps, err := loadChart(chartParser(chartFile), chartFile)
	if nil != err {
		return err
	}
	store, err := score.Open(*config.Database)
	if nil != err {
		return err
	}
	defer store.Close()

	histories, err := store.Load(score.Hash(steps))
	if nil != err {
		return err
	}
	if len(histories) == 0 {
		fmt.Println("No results for", chartFile)
		return nil
	}
	for _, h := range histories {
		mean, stdev := score.Stats(h.Inputs)
		fmt.Printf("%-16v %6.2f%%  %3v bpm  hits %4v  misses %4v  rests %4v  mean %6v  stdev %6v\n",
			humanize.Time(h.Played), h.Percentage, h.Tempo.BPM, h.Hits, h.Misses, h.Redundant,
			mean.Round(time.Millisecond), stdev.Round(time.Millisecond))
	}
	return nil
}

func play(chartFile string) error {
	// The terminal belongs to the renderer while playing
	logFile, err := os.OpenFile(*config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if nil != err {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)

	store, err := score.Open(*config.Database)
	if nil != err {
		return err
	}
	defer store.Close()

	loop := schedule.NewLoop()
	r := render.NewDefaultRenderer(&theme.DefaultTheme{}, *config.ColumnSpacing)
	p := &Program{
		Parser:   chartParser(chartFile),
		Renderer: r,
		Store:    store,
	}

	if *config.Metronome {
		m, err := audio.NewBeepMetronome(beep.SampleRate(44100), *config.BeatsPerBar)
		if nil != err {
			log.Println("unable to open audio device, playing without metronome", err)
		} else {
			p.Metronome = m
		}
	}

	events := make(chan input.Raw, 128)
	closeKeyboard, err := input.ReadKeyboard(loop.Now, events)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer closeKeyboard()

	if *config.MidiPort >= 0 {
		closeMidi, err := input.ReadMidi(*config.MidiPort, loop.Now, events)
		if nil != err {
			return err
		}
		defer closeMidi()
	}

	// Clear the screen and hide the cursor
	if err := r.Init(); nil != err {
		return err
	}
	defer func() {
		// Restore the terminal state
		r.Deinit()
	}()

	if err := p.Init(chartFile, loop); nil != err {
		return err
	}
	return p.Run(context.Background(), events)
}

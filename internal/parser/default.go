package parser

import (
	"bufio"
	"io"
	"math/big"
	"strconv"
	"strings"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

// DefaultParser reads the tab separated event stream written by the
// notation converter, one event per line:
//
//	moment	origin	type	id	duration
//
// Incomplete lines are dropped rather than reported.
type DefaultParser struct{}

func (p *DefaultParser) parseMoment(field string) (float64, bool) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(field))
	if !ok {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}

func (p *DefaultParser) parseDuration(fields []string) float64 {
	idx := 4
	if len(fields) == 4 {
		idx = 3
	} else if len(fields) < 4 {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
	if nil != err {
		return 0
	}
	return d
}

func (p *DefaultParser) mapToKind(t string) (game.Kind, bool) {
	switch strings.TrimSpace(t) {
	case "note":
		return game.Note, true
	case "rest":
		return game.Rest, true
	}
	return 0, false
}

func (p *DefaultParser) parseLine(line string) (game.Event, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return game.Event{}, false
	}
	moment, ok := p.parseMoment(fields[0])
	if !ok {
		return game.Event{}, false
	}
	origin := strings.TrimSpace(fields[1])
	if origin == "undefined" || origin == "" {
		return game.Event{}, false
	}
	lane, ok := game.LaneMap[origin]
	if !ok {
		lane = game.Lane(origin)
	}

	// Counts carry no playable content, whatever their type column says
	kind := game.Rest
	if lane != game.Counts {
		kind, ok = p.mapToKind(fields[2])
		if !ok {
			return game.Event{}, false
		}
	}

	return game.Event{
		Moment:   moment,
		Lane:     lane,
		Kind:     kind,
		Duration: p.parseDuration(fields),
	}, true
}

func (p *DefaultParser) Parse(r io.Reader) ([]game.Event, error) {
	events := []game.Event{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if event, ok := p.parseLine(line); ok {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); nil != err {
		return nil, err
	}
	return events, nil
}

package game

import (
	"time"
)

type Colour uint8

const (
	Neutral Colour = iota
	Correct
	Early
	Late
	Missed
)

func (c Colour) String() string {
	return [...]string{"neutral", "correct", "early", "late", "missed"}[c]
}

type Emphasis uint8

const (
	Normal Emphasis = iota
	Emphasized
)

type Outcome uint8

const (
	Hit Outcome = iota
	Miss
	Redundant
)

func (o Outcome) String() string {
	return [...]string{"hit", "miss", "redundant"}[o]
}

type Judgement struct {
	Step    int
	Lane    Lane
	Outcome Outcome
	Offset  time.Duration // Signed, negative is early. Only set for hits
	Percent float64       // 100 is on time, below is early, above is late
	Colour  Colour
}

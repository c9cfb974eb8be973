package theme

import (
	"image/color"
	"strconv"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

type DefaultTheme struct{}

var itemColours = map[game.Colour]color.RGBA{
	game.Neutral: {236, 236, 236, 255}, // white
	game.Correct: {0, 160, 60, 255},    // dark green
	game.Early:   {236, 30, 0, 255},    // red
	game.Late:    {0, 118, 236, 255},   // blue
	game.Missed:  {106, 106, 106, 255}, // grey
}

func (t *DefaultTheme) ItemColour(c game.Colour) color.RGBA {
	col, ok := itemColours[c]
	if !ok {
		return itemColours[game.Neutral]
	}
	return col
}

func (t *DefaultTheme) ItemSymbol(kind game.Kind) string {
	if kind == game.Rest {
		return restSym
	}
	return noteSym
}

// Markers count the steps, only the last digit fits in a column
func (t *DefaultTheme) MarkerSymbol(step int) string {
	return strconv.Itoa((step + 1) % 10)
}

const (
	noteSym = "⬤"
	restSym = "𝄽"
)

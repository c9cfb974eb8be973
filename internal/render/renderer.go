package render

import (
	"image/color"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

type Renderer interface {
	Init() error
	Deinit() error
	Layout(steps []*game.Step) (markers []game.Handle, visual func(step int, item *game.Item) game.Handle)
	Fill(row, column uint16, message string)
	FillColor(row, column uint16, color color.RGBA, message string)
	Flush()

	SetMarkerEmphasis(marker game.Handle, e game.Emphasis)
	SetItemColour(visual game.Handle, c game.Colour)
	SetScore(text string)
}

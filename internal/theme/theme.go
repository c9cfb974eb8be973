package theme

import (
	"image/color"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

type Theme interface {
	ItemColour(c game.Colour) color.RGBA
	ItemSymbol(kind game.Kind) string
	MarkerSymbol(step int) string
}

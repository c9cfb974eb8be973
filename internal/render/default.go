package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"git.lost.host/meutraa/sightbeat/internal/theme"
	"golang.org/x/term"
)

const (
	firstRow   = 4
	rowsPerRun = 5
	scoreRow   = 2
)

// Lanes are drawn top to bottom in this order under their marker
var laneRows = map[game.Lane]uint16{
	game.RightHand: 1,
	game.AnyHand:   2,
	game.LeftHand:  3,
}

// DefaultRenderer draws the chart as rows of columns on an ANSI terminal
type DefaultRenderer struct {
	Out     io.Writer
	Theme   theme.Theme
	Spacing uint16
	Width   int

	buffer strings.Builder
}

type cell struct {
	Row, Column uint16
	Content     string
}

func NewDefaultRenderer(th theme.Theme, spacing uint16) *DefaultRenderer {
	width := 80
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); nil == err {
			width = w
		}
	}
	return &DefaultRenderer{Out: os.Stdout, Theme: th, Spacing: spacing, Width: width}
}

func (r *DefaultRenderer) Init() error {
	fmt.Fprintf(r.Out, "%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[J",      // Clear the screen
	)
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	_, err := fmt.Fprintf(r.Out, "%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	return err
}

func (r *DefaultRenderer) position(step int) (row, column uint16) {
	spacing := int(r.Spacing)
	if spacing < 1 {
		spacing = 1
	}
	perRun := (r.Width - 4) / spacing
	if perRun < 1 {
		perRun = 1
	}
	run := step / perRun
	return uint16(firstRow + run*rowsPerRun), uint16(3 + (step%perRun)*spacing)
}

// Layout assigns a cell to every marker and item and draws them neutral
func (r *DefaultRenderer) Layout(steps []*game.Step) ([]game.Handle, func(int, *game.Item) game.Handle) {
	markers := make([]game.Handle, len(steps))
	for i := range steps {
		row, col := r.position(i)
		markers[i] = &cell{Row: row, Column: col, Content: r.Theme.MarkerSymbol(i)}
		r.Fill(row, col, r.Theme.MarkerSymbol(i))
	}
	return markers, func(step int, item *game.Item) game.Handle {
		row, col := r.position(step)
		offset, ok := laneRows[item.Lane]
		if !ok {
			offset = laneRows[game.AnyHand]
		}
		c := &cell{Row: row + offset, Column: col, Content: r.Theme.ItemSymbol(item.Kind)}
		r.FillColor(c.Row, c.Column, r.Theme.ItemColour(game.Neutral), c.Content)
		return c
	}
}

func (r *DefaultRenderer) SetMarkerEmphasis(marker game.Handle, e game.Emphasis) {
	c, ok := marker.(*cell)
	if !ok {
		return
	}
	if e == game.Emphasized {
		r.Fill(c.Row, c.Column, "\033[1;7m"+c.Content+"\033[0m")
	} else {
		r.Fill(c.Row, c.Column, c.Content)
	}
}

func (r *DefaultRenderer) SetItemColour(visual game.Handle, col game.Colour) {
	c, ok := visual.(*cell)
	if !ok {
		return
	}
	r.FillColor(c.Row, c.Column, r.Theme.ItemColour(col), c.Content)
}

func (r *DefaultRenderer) SetScore(text string) {
	r.Fill(scoreRow, 3, "\033[K"+text)
}

func (r *DefaultRenderer) Fill(row, column uint16, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

func (r *DefaultRenderer) FillColor(row, column uint16, c color.RGBA, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.FormatInt(int64(row), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(column), 10))
	r.buffer.WriteString("H\033[38;2;")
	r.buffer.WriteString(strconv.FormatInt(int64(c.R), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.G), 10))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.FormatInt(int64(c.B), 10))
	r.buffer.WriteString("m")
	r.buffer.WriteString(message)
	r.buffer.WriteString("\033[0m")
}

func (r *DefaultRenderer) Flush() {
	if r.buffer.Len() == 0 {
		return
	}
	r.Out.Write([]byte(r.buffer.String()))
	r.buffer.Reset()
}

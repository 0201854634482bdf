package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Greys 232 to 255 of the 256-colour palette run from black to white.
const (
	greyBase  = 232
	greySteps = 23
)

// HiddenColour returns the near-background grey used to print secrets.
// visibility runs from 0 (black) to 1 (white); values outside that range are
// clamped with a warning.
func HiddenColour(visibility float64, log *zap.Logger) *color.Color {
	if visibility < 0 || visibility > 1 || math.IsNaN(visibility) {
		if log != nil {
			log.Warn("hidden_colour_visibility out of range 0-1, clamping", zap.Float64("value", visibility))
		}
	}
	if math.IsNaN(visibility) {
		visibility = 0
	}
	shade := greyBase + int(math.Min(math.Abs(greySteps*visibility), greySteps))
	return color.New(color.Attribute(38), color.Attribute(5), color.Attribute(shade))
}

// Presenter prints command results.
type Presenter struct {
	out    io.Writer
	hidden *color.Color
	warn   *color.Color
}

// NewPresenter returns a Presenter writing to out.
func NewPresenter(out io.Writer, hidden *color.Color) *Presenter {
	return &Presenter{
		out:    out,
		hidden: hidden,
		warn:   color.New(color.FgYellow),
	}
}

// Println prints a plain line.
func (p *Presenter) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

// Printf prints formatted text.
func (p *Presenter) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.out, format, a...)
}

// Secret prints secret on its own line in the hidden colour.
func (p *Presenter) Secret(secret string) {
	p.hidden.Fprintln(p.out, secret)
}

// Warning prints a highlighted warning line.
func (p *Presenter) Warning(format string, a ...interface{}) {
	p.warn.Fprintf(p.out, "Warning: "+format+"\n", a...)
}

// List prints names one per line, indented.
func (p *Presenter) List(names []string) {
	for _, n := range names {
		fmt.Fprintf(p.out, "  %s\n", n)
	}
}

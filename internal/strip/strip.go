// Package strip implements the LED strip drivers of the daemon.
package strip

import (
	"dev.acmcsuf.com/ledfx"
	"libdb.so/ledctl"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

// Controller adapts an RGBController with a known number of LEDs to
// ledfx.Strip.
type Controller struct {
	ctrl RGBController
	n    int
}

var _ ledfx.Strip = (*Controller)(nil)

// NewController wraps ctrl, which drives n LEDs.
func NewController(ctrl RGBController, n int) *Controller {
	return &Controller{ctrl: ctrl, n: n}
}

// Len implements ledfx.Strip.
func (c *Controller) Len() int {
	return c.n
}

// SetRGBAt implements ledfx.Strip.
func (c *Controller) SetRGBAt(i int, color ledfx.Color) {
	c.ctrl.SetRGBAt(i, ledctl.RGB(color))
}

// Flush implements ledfx.Strip.
func (c *Controller) Flush() error {
	return c.ctrl.Flush()
}

package ledfx

import "dev.acmcsuf.com/christmas/lib/xcolor"

// Color is the color of a single LED.
type Color = xcolor.RGB

// Off is the color of an unlit LED.
var Off = Color{}

// Frame is the complete set of colors written to the strip in one update.
// Index i is physical LED i.
type Frame []Color

// Clear sets every LED in the frame to Off.
func (f Frame) Clear() {
	for i := range f {
		f[i] = Off
	}
}

// Fill sets every LED in the frame to c.
func (f Frame) Fill(c Color) {
	for i := range f {
		f[i] = c
	}
}

// ColorCycle traverses the RGB hue wheel by ramping one channel at a time:
// red, yellow, green, cyan, blue, magenta and back to red.
type ColorCycle struct {
	color  [3]uint8
	idx    int
	fadeIn bool
}

// NewColorCycle returns a cycle starting at pure red.
func NewColorCycle() *ColorCycle {
	c := &ColorCycle{}
	c.Reset()
	return c
}

// Reset moves the cycle back to pure red.
func (c *ColorCycle) Reset() {
	c.color = [3]uint8{255, 0, 0}
	c.idx = 1
	c.fadeIn = true
}

// Next advances the changing channel by step and returns the new color. A
// step of 0 or less is treated as 1.
func (c *ColorCycle) Next(step int) Color {
	if step <= 0 {
		step = 1
	}

	v := int(c.color[c.idx])
	if c.fadeIn {
		v = min(255, v+step)
		c.color[c.idx] = uint8(v)
		if v == 255 {
			c.fadeIn = false
			c.idx = (c.idx + 2) % 3 // previous channel
		}
	} else {
		v = max(0, v-step)
		c.color[c.idx] = uint8(v)
		if v == 0 {
			c.fadeIn = true
			c.idx = (c.idx + 2) % 3
		}
	}

	return c.Color()
}

// Color returns the current color without advancing.
func (c *ColorCycle) Color() Color {
	return Color{R: c.color[0], G: c.color[1], B: c.color[2]}
}

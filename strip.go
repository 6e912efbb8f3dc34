// Package ledfx runs LED strip animations that are switched and sped up with
// buttons.
package ledfx

// Strip is an addressable LED strip.
type Strip interface {
	// Len returns the number of LEDs on the strip.
	Len() int
	// SetRGBAt sets the color of LED i in the strip's buffer.
	SetRGBAt(i int, color Color)
	// Flush transmits the buffer to the LEDs.
	Flush() error
}

// Host is the device hosting the strip.
type Host interface {
	// SetBrightness sets the display backlight level.
	SetBrightness(level uint8) error
	// Exit leaves the LED program and returns control to the host.
	Exit()
}

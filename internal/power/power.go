// Package power controls the LED power pin and the display backlight of the
// device.
package power

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/stianeikeland/go-rpio/v4"
)

// backlightFreq is the PWM clock of the backlight pin. With a cycle length
// of 255 it gives a PWM frequency of about 1.2kHz.
const backlightFreq = 255 * 1200

type pwmPin interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

// Config configures the pins.
type Config struct {
	// PowerPin is the BCM number of the pin powering the LEDs.
	PowerPin int
	// BacklightPin is the BCM number of the PWM backlight pin.
	BacklightPin int
}

// Host implements ledfx.Host on a Raspberry Pi.
type Host struct {
	power     rpio.Pin
	powered   bool
	backlight pwmPin
	exit      func()
	logger    *slog.Logger
	level     atomic.Uint32
}

// Open maps the GPIO memory, powers the LEDs on and sets up the backlight.
// exit is called when the effect engine asks to exit.
func Open(cfg Config, exit func(), logger *slog.Logger) (*Host, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO memory: %w", err)
	}

	power := rpio.Pin(cfg.PowerPin)
	power.Output()
	power.High()

	backlight := rpio.Pin(cfg.BacklightPin)
	backlight.Pwm()
	backlight.Freq(backlightFreq)

	h := newHost(backlight, exit, logger)
	h.power = power
	h.powered = true
	return h, nil
}

func newHost(backlight pwmPin, exit func(), logger *slog.Logger) *Host {
	return &Host{
		backlight: backlight,
		exit:      exit,
		logger:    logger,
	}
}

// SetBrightness sets the backlight to level out of 255.
func (h *Host) SetBrightness(level uint8) error {
	h.backlight.DutyCycle(uint32(level), 255)
	h.level.Store(uint32(level))

	h.logger.Debug(
		"backlight brightness set",
		"level", level)

	return nil
}

// Brightness returns the last brightness set.
func (h *Host) Brightness() uint8 {
	return uint8(h.level.Load())
}

// Exit calls the exit function given to Open.
func (h *Host) Exit() {
	h.logger.Info("exit requested")
	if h.exit != nil {
		h.exit()
	}
}

// Close powers the LEDs off and unmaps the GPIO memory.
func (h *Host) Close() error {
	if h.powered {
		h.power.Low()
	}
	return rpio.Close()
}

// Noop is a Host for machines without the power and backlight pins.
type Noop struct {
	*Host
}

type noPin struct{}

func (noPin) DutyCycle(dutyLen, cycleLen uint32) {}

// NewNoop returns a Host that only remembers the brightness and calls exit.
func NewNoop(exit func(), logger *slog.Logger) *Noop {
	return &Noop{newHost(noPin{}, exit, logger)}
}

// Close does nothing.
func (n *Noop) Close() error { return nil }

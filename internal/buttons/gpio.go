package buttons

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dev.acmcsuf.com/ledfx"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// edgeTimeout bounds how long a pin watcher blocks before checking whether
// it should stop.
const edgeTimeout = 100 * time.Millisecond

// GPIO reads active-low buttons wired to GPIO pins with pull-ups.
type GPIO struct {
	pins   map[ledfx.Button]gpio.PinIO
	sink   Sink
	logger *slog.Logger
}

// LookupPins resolves a map of button names to GPIO pin names, e.g.
// {"a": "GPIO13"}. The host must have been initialized with
// periph.io/x/host/v3.
func LookupPins(names map[string]string) (map[ledfx.Button]gpio.PinIO, error) {
	buttons, err := parseButtons(names)
	if err != nil {
		return nil, err
	}

	pins := make(map[ledfx.Button]gpio.PinIO, len(buttons))
	for b, name := range buttons {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("no GPIO pin %q for button %s", name, b)
		}
		pins[b] = pin
	}
	return pins, nil
}

// NewGPIO configures pins as inputs with pull-ups and edge detection.
func NewGPIO(pins map[ledfx.Button]gpio.PinIO, sink Sink, logger *slog.Logger) (*GPIO, error) {
	for b, pin := range pins {
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("failed to set up pin %s for button %s: %w", pin, b, err)
		}
	}

	return &GPIO{
		pins:   pins,
		sink:   sink,
		logger: logger,
	}, nil
}

// Run watches all pins until ctx is done.
func (g *GPIO) Run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	for b, pin := range g.pins {
		b, pin := b, pin
		errg.Go(func() error {
			g.watch(ctx, b, pin)
			return nil
		})
	}

	return errg.Wait()
}

func (g *GPIO) watch(ctx context.Context, b ledfx.Button, pin gpio.PinIO) {
	defer func() {
		if err := pin.Halt(); err != nil {
			g.logger.Warn(
				"failed to halt pin",
				"pin", pin.Name(),
				"error", err)
		}
	}()

	last := pin.Read()

	for ctx.Err() == nil {
		if !pin.WaitForEdge(edgeTimeout) {
			continue
		}

		// Edges without a level change are contact bounce.
		level := pin.Read()
		if level == last {
			continue
		}
		last = level

		g.sink.Send(ledfx.ButtonEvent{
			Button:  b,
			Pressed: level == gpio.Low,
		})
	}
}

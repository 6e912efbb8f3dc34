package ledfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrExit is the cause of the context cancellation when the user asks to
// leave the LED program.
var ErrExit = errors.New("exit requested")

// State is a snapshot of the dispatcher.
type State struct {
	Effect      string  `json:"effect"`
	Index       int     `json:"index"`
	Speed       float64 `json:"speed"`
	ColorSource string  `json:"color_source,omitempty"`
}

// DispatcherOpts are options for a dispatcher.
type DispatcherOpts struct {
	// Effects are the effects to select from, in order. The first one
	// runs first.
	Effects []*Effect
	// Host controls the device's backlight and exit.
	Host Host
	// Logger is the logger to use for the dispatcher.
	Logger *slog.Logger
	// QueueSize is the number of button events that can be pending before
	// new ones are dropped. Defaults to 8.
	QueueSize int
	// OnChange is called with the new state whenever the selected effect,
	// its speed or its color source changes. It is called from the
	// dispatcher's goroutine and must not block.
	OnChange func(State)
}

// Dispatcher owns the effects, runs the selected one and routes button
// events to it. Button events are queued by Send from any goroutine and
// handled between two frames of the running effect.
type Dispatcher struct {
	opts   DispatcherOpts
	events chan ButtonEvent
	// active is only written by the goroutine running Run.
	active atomic.Int32
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(opts DispatcherOpts) (*Dispatcher, error) {
	if len(opts.Effects) == 0 {
		return nil, errors.New("no effects")
	}
	if opts.Host == nil {
		return nil, errors.New("no host")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 8
	}

	return &Dispatcher{
		opts:   opts,
		events: make(chan ButtonEvent, opts.QueueSize),
	}, nil
}

// Run turns the backlight off and runs the selected effect, switching
// effects as buttons are pressed, until ctx is done or an effect fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.opts.Host.SetBrightness(0); err != nil {
		d.opts.Logger.WarnContext(ctx,
			"failed to turn off backlight",
			"error", err)
	}

	d.notify()

	for {
		effect := d.current()

		d.opts.Logger.DebugContext(ctx,
			"starting effect",
			"effect", effect.Name(),
			"index", d.active.Load())

		if err := effect.Run(ctx, d); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return fmt.Errorf("effect %q failed: %w", effect.Name(), err)
		}
	}
}

// Send queues a button event without blocking. It reports false if the
// queue is full and the event was dropped.
func (d *Dispatcher) Send(ev ButtonEvent) bool {
	select {
	case d.events <- ev:
		return true
	default:
		d.opts.Logger.Warn(
			"button event dropped",
			"button", ev.Button,
			"pressed", ev.Pressed)
		return false
	}
}

// Press queues a press of button b.
func (d *Dispatcher) Press(b Button) bool {
	return d.Send(ButtonEvent{Button: b, Pressed: true})
}

// State returns a snapshot of the dispatcher.
func (d *Dispatcher) State() State {
	idx := int(d.active.Load())
	effect := d.opts.Effects[idx]
	return State{
		Effect:      effect.Name(),
		Index:       idx,
		Speed:       effect.Speed(),
		ColorSource: effect.ColorSource(),
	}
}

// Wait implements Pacer. It handles button events while waiting and returns
// early once the running effect has been stopped.
func (d *Dispatcher) Wait(ctx context.Context, dur time.Duration) error {
	timer := time.NewTimer(dur)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-timer.C:
			return nil
		case ev := <-d.events:
			d.handle(ctx, ev)
			if !d.current().Active() {
				return nil
			}
		}
	}
}

func (d *Dispatcher) current() *Effect {
	return d.opts.Effects[d.active.Load()]
}

func (d *Dispatcher) handle(ctx context.Context, ev ButtonEvent) {
	if !ev.Pressed {
		return
	}

	d.opts.Logger.DebugContext(ctx,
		"button pressed",
		"button", ev.Button)

	effect := d.current()

	switch ev.Button {
	case ButtonUp:
		effect.Faster()
	case ButtonDown:
		effect.Slower()
	case ButtonA:
		d.switchEffect(ctx, +1)
	case ButtonB:
		d.switchEffect(ctx, -1)
	case ButtonSelect:
		if _, ok := effect.CycleColorSource(); !ok {
			return
		}
	case ButtonHome:
		d.home(ctx)
		return
	default:
		return
	}

	d.notify()
}

func (d *Dispatcher) switchEffect(ctx context.Context, delta int) {
	d.current().Stop()

	n := len(d.opts.Effects)
	next := (int(d.active.Load()) + delta + n) % n
	d.active.Store(int32(next))

	d.opts.Logger.InfoContext(ctx,
		"effect switched",
		"effect", d.opts.Effects[next].Name(),
		"index", next)
}

func (d *Dispatcher) home(ctx context.Context) {
	d.opts.Logger.InfoContext(ctx, "exiting to host")

	if err := d.opts.Host.SetBrightness(255); err != nil {
		d.opts.Logger.WarnContext(ctx,
			"failed to turn on backlight",
			"error", err)
	}
	d.opts.Host.Exit()
}

func (d *Dispatcher) notify() {
	if d.opts.OnChange != nil {
		d.opts.OnChange(d.State())
	}
}

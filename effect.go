package ledfx

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// ErrUnimplemented is returned when running an effect that has no
	// animation.
	ErrUnimplemented = errors.New("effect not implemented")
	// ErrTooFewPixels is returned when an animation needs more pixels than
	// the strip has.
	ErrTooFewPixels = errors.New("too few pixels for effect")
	// ErrPathOutOfRange is returned when a runner path is empty or names a
	// pixel outside of the strip.
	ErrPathOutOfRange = errors.New("runner path out of range")
)

// Animator is a single animation algorithm. Animators are only used by one
// goroutine at a time.
type Animator interface {
	// Name returns a short, human readable name of the animation.
	Name() string
	// Reset discards any state from a previous run and prepares the
	// animation for a strip of n pixels.
	Reset(n int) error
	// Next renders the next frame into f, which is all Off, and returns
	// the time to wait before the following frame at speed 1.0.
	Next(f Frame) time.Duration
}

// ColorToggler is implemented by animations with more than one color
// source.
type ColorToggler interface {
	// CycleColorSource switches to the next color source and returns its
	// name.
	CycleColorSource() string
	// ColorSource returns the name of the selected color source.
	ColorSource() string
}

// Pacer waits between two frames of a running effect.
type Pacer interface {
	// Wait blocks for d or until the effect should check whether it is
	// still active, whichever happens first.
	Wait(ctx context.Context, d time.Duration) error
}

type sleepPacer struct{}

func (sleepPacer) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// Effect runs an Animator on a Strip.
type Effect struct {
	anim   Animator
	strip  Strip
	speed  *Speed
	active atomic.Bool
	frames atomic.Uint64
}

// EffectOpts are options for an effect.
type EffectOpts struct {
	// Speed is the speed of the effect. Effects sharing a Speed change
	// speed together. If nil, the effect gets its own Speed.
	Speed *Speed
}

// NewEffect creates a new effect that renders anim onto strip. A nil anim
// gives a placeholder effect whose Run fails with ErrUnimplemented.
func NewEffect(strip Strip, anim Animator, opts EffectOpts) (*Effect, error) {
	if opts.Speed == nil {
		opts.Speed = NewSpeed()
	}

	if anim != nil {
		if err := anim.Reset(strip.Len()); err != nil {
			return nil, fmt.Errorf("invalid effect %q: %w", anim.Name(), err)
		}
	}

	return &Effect{
		anim:  anim,
		strip: strip,
		speed: opts.Speed,
	}, nil
}

// Name returns the name of the effect.
func (e *Effect) Name() string {
	if e.anim == nil {
		return "unimplemented"
	}
	return e.anim.Name()
}

// Run renders frames until Stop is observed or ctx is done. Each call starts
// the animation from scratch. Stop is checked once per frame, after pacing.
// If pace is nil, Run sleeps between frames.
func (e *Effect) Run(ctx context.Context, pace Pacer) error {
	if e.anim == nil {
		return ErrUnimplemented
	}
	if pace == nil {
		pace = sleepPacer{}
	}

	n := e.strip.Len()
	if err := e.anim.Reset(n); err != nil {
		return fmt.Errorf("failed to reset %q: %w", e.anim.Name(), err)
	}

	e.active.Store(true)
	defer e.active.Store(false)

	for e.active.Load() {
		frame := make(Frame, n)
		base := e.anim.Next(frame)

		if err := e.update(frame); err != nil {
			return err
		}

		if err := pace.Wait(ctx, e.speed.Scale(base)); err != nil {
			return err
		}
	}

	return nil
}

// Stop asks a running effect to return from Run. It takes effect at the
// next frame boundary.
func (e *Effect) Stop() {
	e.active.Store(false)
}

// Active reports whether the effect is running and has not been stopped.
func (e *Effect) Active() bool {
	return e.active.Load()
}

// Faster speeds up the effect by 0.1, up to 2.0.
func (e *Effect) Faster() {
	e.speed.Faster()
}

// Slower slows down the effect by 0.1, down to 0.1.
func (e *Effect) Slower() {
	e.speed.Slower()
}

// Speed returns the current speed factor.
func (e *Effect) Speed() float64 {
	return e.speed.Value()
}

// Frames returns the number of frames written since the effect was created.
func (e *Effect) Frames() uint64 {
	return e.frames.Load()
}

// CycleColorSource switches the effect to its next color source. It returns
// false if the effect only has one.
func (e *Effect) CycleColorSource() (string, bool) {
	t, ok := e.anim.(ColorToggler)
	if !ok {
		return "", false
	}
	return t.CycleColorSource(), true
}

// ColorSource returns the name of the effect's selected color source, or an
// empty string if it has no choice of color sources.
func (e *Effect) ColorSource() string {
	if t, ok := e.anim.(ColorToggler); ok {
		return t.ColorSource()
	}
	return ""
}

func (e *Effect) update(frame Frame) error {
	for i, color := range frame {
		e.strip.SetRGBAt(i, color)
	}
	if err := e.strip.Flush(); err != nil {
		return fmt.Errorf("failed to flush strip: %w", err)
	}
	e.frames.Add(1)
	return nil
}

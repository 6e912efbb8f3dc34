package ledfx

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	paletteInterval    = 10 * time.Millisecond
	circleInterval     = 250 * time.Millisecond
	randomInterval     = 200 * time.Millisecond
	runnerInterval     = 250 * time.Millisecond
	runnerTurnInterval = 450 * time.Millisecond
)

// fastStep is the ColorCycle step used by effects that move a single pixel,
// so that the color change is visible from frame to frame.
const fastStep = 15

// Palette fades every LED through the color wheel in sync.
type Palette struct {
	cycle ColorCycle
}

var _ Animator = (*Palette)(nil)

// NewPalette creates a new Palette animation.
func NewPalette() *Palette {
	return &Palette{}
}

func (p *Palette) Name() string { return "palette" }

func (p *Palette) Reset(n int) error {
	p.cycle.Reset()
	return nil
}

func (p *Palette) Next(f Frame) time.Duration {
	f.Fill(p.cycle.Next(1))
	return paletteInterval
}

// CircleOpts are options for a Circle animation.
type CircleOpts struct {
	// Marker is the index of the LED that is always lit.
	Marker int
	// Sources are the color sources the circle can switch between. The
	// first one is used initially. Defaults to SmoothCycle(15).
	Sources []ColorSource
}

// Circle sends a pixel around the strip while keeping a marker LED lit. The
// moving pixel skips over the marker.
type Circle struct {
	opts    CircleOpts
	sources *colorSources
	n       int
	pixel   int
}

var (
	_ Animator     = (*Circle)(nil)
	_ ColorToggler = (*Circle)(nil)
)

// NewCircle creates a new Circle animation.
func NewCircle(opts CircleOpts) *Circle {
	return &Circle{
		opts:    opts,
		sources: newColorSources(opts.Sources),
	}
}

func (c *Circle) Name() string { return "circle" }

func (c *Circle) Reset(n int) error {
	if n < 2 {
		return ErrTooFewPixels
	}
	if c.opts.Marker < 0 || c.opts.Marker >= n {
		return fmt.Errorf("marker %d outside of %d pixels", c.opts.Marker, n)
	}
	c.n = n
	c.pixel = 0
	c.sources.reset()
	return nil
}

func (c *Circle) Next(f Frame) time.Duration {
	src := c.sources.source()

	if c.pixel == c.opts.Marker {
		c.advance(src)
	}

	color := src.Tick()
	f[c.opts.Marker] = color
	f[c.pixel] = color

	c.advance(src)
	return circleInterval
}

func (c *Circle) advance(src ColorSource) {
	c.pixel = (c.pixel + 1) % c.n
	if c.pixel == 0 {
		src.Lap()
	}
}

func (c *Circle) CycleColorSource() string { return c.sources.cycle() }
func (c *Circle) ColorSource() string      { return c.sources.name() }

// Random lights one random LED per frame, never the same one twice in a row.
type Random struct {
	rng   *rand.Rand
	cycle ColorCycle
	n     int
	pixel int
}

var _ Animator = (*Random)(nil)

// NewRandom creates a new Random animation. If rng is nil, a time-seeded
// source is used.
func NewRandom(rng *rand.Rand) *Random {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Random{rng: rng}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Reset(n int) error {
	if n < 2 {
		return ErrTooFewPixels
	}
	r.n = n
	r.pixel = 0
	r.cycle.Reset()
	return nil
}

func (r *Random) Next(f Frame) time.Duration {
	f[r.pixel] = r.cycle.Next(fastStep)
	r.pixel = r.pick()
	return randomInterval
}

// pick returns a uniformly random index other than the current one.
func (r *Random) pick() int {
	i := r.rng.Intn(r.n - 1)
	if i >= r.pixel {
		i++
	}
	return i
}

// Runner runs a pixel back and forth along a path of LEDs, pausing at both
// ends before turning around.
type Runner struct {
	path    []int
	cycle   ColorCycle
	idx     int
	forward bool
}

var _ Animator = (*Runner)(nil)

// NewRunner creates a new Runner animation along the given LED indices.
func NewRunner(path []int) *Runner {
	return &Runner{path: append([]int(nil), path...)}
}

func (r *Runner) Name() string { return "runner" }

func (r *Runner) Reset(n int) error {
	if len(r.path) == 0 {
		return ErrPathOutOfRange
	}
	for _, i := range r.path {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: pixel %d of %d", ErrPathOutOfRange, i, n)
		}
	}
	r.idx = 0
	r.forward = true
	r.cycle.Reset()
	return nil
}

func (r *Runner) Next(f Frame) time.Duration {
	f[r.path[r.idx]] = r.cycle.Next(fastStep)

	interval := runnerInterval
	if r.idx == 0 || r.idx == len(r.path)-1 {
		interval = runnerTurnInterval
	}

	if len(r.path) > 1 {
		if r.forward && r.idx == len(r.path)-1 {
			r.forward = false
		} else if !r.forward && r.idx == 0 {
			r.forward = true
		}
		if r.forward {
			r.idx++
		} else {
			r.idx--
		}
	}

	return interval
}

package ledfx

import "sync/atomic"

// ColorSource supplies the color of a moving pixel.
type ColorSource interface {
	Name() string
	// Reset moves the source back to its first color.
	Reset()
	// Tick returns the color for the current frame. It is called once per
	// frame.
	Tick() Color
	// Lap is called whenever the animation completes a full lap.
	Lap()
}

type smoothCycle struct {
	cycle ColorCycle
	step  int
}

// SmoothCycle returns a source that advances a ColorCycle by step on every
// frame.
func SmoothCycle(step int) ColorSource {
	s := &smoothCycle{step: step}
	s.cycle.Reset()
	return s
}

func (s *smoothCycle) Name() string { return "cycle" }
func (s *smoothCycle) Reset()       { s.cycle.Reset() }
func (s *smoothCycle) Tick() Color  { return s.cycle.Next(s.step) }
func (s *smoothCycle) Lap()         {}

type fixedPalette struct {
	name   string
	colors []Color
	idx    int
}

// FixedPalette returns a source that shows one color for a whole lap and
// moves to the next color of the palette after each lap.
func FixedPalette(name string, colors ...Color) ColorSource {
	if len(colors) == 0 {
		colors = []Color{Off}
	}
	return &fixedPalette{name: name, colors: colors}
}

func (p *fixedPalette) Name() string { return p.name }
func (p *fixedPalette) Reset()       { p.idx = 0 }
func (p *fixedPalette) Tick() Color  { return p.colors[p.idx] }
func (p *fixedPalette) Lap()         { p.idx = (p.idx + 1) % len(p.colors) }

// MCHPalette returns the MCH2022 brand colors.
func MCHPalette() ColorSource {
	return FixedPalette("mch",
		Color{R: 0x49, G: 0x1d, B: 0x88},
		Color{R: 0xfa, G: 0x44, B: 0x8c},
		Color{R: 0xfe, G: 0xc8, B: 0x59},
		Color{R: 0x43, G: 0xb5, B: 0xa0},
	)
}

// PrimaryPalette returns pure red, green and blue.
func PrimaryPalette() ColorSource {
	return FixedPalette("rgb",
		Color{R: 255},
		Color{G: 255},
		Color{B: 255},
	)
}

// colorSources is a list of color sources with one selected. The selection
// may be changed from another goroutine; the change is picked up on the next
// frame.
type colorSources struct {
	sources  []ColorSource
	selected atomic.Int32
	current  int
}

func newColorSources(sources []ColorSource) *colorSources {
	if len(sources) == 0 {
		sources = []ColorSource{SmoothCycle(15)}
	}
	return &colorSources{sources: sources}
}

func (s *colorSources) reset() {
	s.current = int(s.selected.Load())
	for _, src := range s.sources {
		src.Reset()
	}
}

// source returns the selected source, resetting it if the selection changed
// since the last call.
func (s *colorSources) source() ColorSource {
	if sel := int(s.selected.Load()); sel != s.current {
		s.current = sel
		s.sources[sel].Reset()
	}
	return s.sources[s.current]
}

func (s *colorSources) cycle() string {
	for {
		old := s.selected.Load()
		new := (old + 1) % int32(len(s.sources))
		if s.selected.CompareAndSwap(old, new) {
			return s.sources[new].Name()
		}
	}
}

func (s *colorSources) name() string {
	return s.sources[s.selected.Load()].Name()
}

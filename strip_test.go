package ledfx

import (
	"sync"
)

// testStrip records every flushed frame.
type testStrip struct {
	mu     sync.Mutex
	leds   Frame
	frames []Frame
	err    error
}

func newTestStrip(n int) *testStrip {
	return &testStrip{leds: make(Frame, n)}
}

func (s *testStrip) Len() int { return len(s.leds) }

func (s *testStrip) SetRGBAt(i int, color Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leds[i] = color
}

func (s *testStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append(Frame(nil), s.leds...))
	return nil
}

func (s *testStrip) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Frame(nil), s.frames...)
}

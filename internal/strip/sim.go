package strip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dev.acmcsuf.com/ledfx"
)

// Sim is a strip without hardware. It logs every flushed frame at debug
// level.
type Sim struct {
	logger *slog.Logger

	mu      sync.Mutex
	buf     ledfx.Frame
	flushes int
}

var _ ledfx.Strip = (*Sim)(nil)

// NewSim creates a simulated strip of n LEDs.
func NewSim(n int, logger *slog.Logger) *Sim {
	return &Sim{
		logger: logger,
		buf:    make(ledfx.Frame, n),
	}
}

// Len implements ledfx.Strip.
func (s *Sim) Len() int {
	return len(s.buf)
}

// SetRGBAt implements ledfx.Strip.
func (s *Sim) SetRGBAt(i int, color ledfx.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[i] = color
}

// Flush implements ledfx.Strip.
func (s *Sim) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushes++

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logger.Debug(
			"frame",
			"n", s.flushes,
			"leds", formatFrame(s.buf))
	}

	return nil
}

// Flushes returns the number of frames flushed so far.
func (s *Sim) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushes
}

func formatFrame(frame ledfx.Frame) string {
	var b strings.Builder
	for i, c := range frame {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "#%02x%02x%02x", c.R, c.G, c.B)
	}
	return b.String()
}

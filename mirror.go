package ledfx

import (
	"context"
	"sync"

	"gopkg.in/typ.v4/sync2"
)

// Mirror is a Strip that forwards to another strip and hands a copy of every
// flushed frame to its subscribers. Slow subscribers only see the latest
// frame.
type Mirror struct {
	strip Strip
	subs  sync2.Map[*FrameSubscription, struct{}]

	bufMu sync.Mutex
	buf   Frame
}

var _ Strip = (*Mirror)(nil)

// NewMirror creates a new mirror of strip.
func NewMirror(strip Strip) *Mirror {
	return &Mirror{
		strip: strip,
		buf:   make(Frame, strip.Len()),
	}
}

// Len implements Strip.
func (m *Mirror) Len() int {
	return m.strip.Len()
}

// SetRGBAt implements Strip.
func (m *Mirror) SetRGBAt(i int, color Color) {
	m.bufMu.Lock()
	m.buf[i] = color
	m.bufMu.Unlock()

	m.strip.SetRGBAt(i, color)
}

// Flush implements Strip.
func (m *Mirror) Flush() error {
	if err := m.strip.Flush(); err != nil {
		return err
	}

	m.bufMu.Lock()
	frame := append(Frame(nil), m.buf...)
	m.bufMu.Unlock()

	m.subs.Range(func(sub *FrameSubscription, _ struct{}) bool {
		sub.queue(frame)
		return true
	})

	return nil
}

// Last returns a copy of the last frame set on the mirror.
func (m *Mirror) Last() Frame {
	m.bufMu.Lock()
	defer m.bufMu.Unlock()

	return append(Frame(nil), m.buf...)
}

// Subscribe returns a subscription to flushed frames. The subscription ends
// when ctx is done.
func (m *Mirror) Subscribe(ctx context.Context) *FrameSubscription {
	sub := &FrameSubscription{ch: make(chan Frame, 1)}
	m.subs.Store(sub, struct{}{})

	context.AfterFunc(ctx, func() { m.subs.Delete(sub) })
	return sub
}

// FrameSubscription receives frames from a Mirror.
type FrameSubscription struct {
	ch chan Frame
	mu sync.Mutex
}

// Frames returns the channel that frames are delivered on.
func (s *FrameSubscription) Frames() <-chan Frame {
	return s.ch
}

func (s *FrameSubscription) queue(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Replace a frame the subscriber has not picked up yet.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- frame
}

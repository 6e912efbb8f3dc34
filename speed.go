package ledfx

import (
	"sync/atomic"
	"time"
)

const (
	minSpeedTenths     = 1
	maxSpeedTenths     = 20
	defaultSpeedTenths = 10
)

// Speed is a playback speed factor between 0.1 and 2.0 in steps of 0.1. It
// is safe for concurrent use, so one Speed may be shared between several
// effects to make speed changes global.
type Speed struct {
	tenths atomic.Int32
}

// NewSpeed returns a Speed of 1.0.
func NewSpeed() *Speed {
	s := &Speed{}
	s.tenths.Store(defaultSpeedTenths)
	return s
}

// Faster raises the speed by 0.1. It reports false if the speed is already
// at 2.0.
func (s *Speed) Faster() bool {
	return s.add(+1)
}

// Slower lowers the speed by 0.1. It reports false if the speed is already
// at 0.1.
func (s *Speed) Slower() bool {
	return s.add(-1)
}

func (s *Speed) add(delta int32) bool {
	for {
		old := s.tenths.Load()
		new := old + delta
		if new < minSpeedTenths || new > maxSpeedTenths {
			return false
		}
		if s.tenths.CompareAndSwap(old, new) {
			return true
		}
	}
}

// Value returns the speed factor.
func (s *Speed) Value() float64 {
	return float64(s.tenths.Load()) / 10
}

// Scale returns the frame period for an effect whose interval at speed 1.0
// is base.
func (s *Speed) Scale(base time.Duration) time.Duration {
	return base * 10 / time.Duration(s.tenths.Load())
}

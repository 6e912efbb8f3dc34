package ledfx

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestSpeedRails(t *testing.T) {
	s := NewSpeed()
	assertEq(t, 1.0, s.Value())

	for i := 0; i < 10; i++ {
		if !s.Faster() {
			t.Fatalf("Faster failed at step %d", i)
		}
	}
	assertEq(t, 2.0, s.Value())
	assertEq(t, false, s.Faster())
	assertEq(t, 2.0, s.Value())

	for i := 0; i < 19; i++ {
		s.Slower()
	}
	assertEq(t, 0.1, s.Value())
	assertEq(t, false, s.Slower())
	assertEq(t, 0.1, s.Value())
}

func TestSpeedScale(t *testing.T) {
	s := NewSpeed()
	assertEq(t, 250*time.Millisecond, s.Scale(250*time.Millisecond))

	for i := 0; i < 10; i++ {
		s.Faster()
	}
	assertEq(t, 125*time.Millisecond, s.Scale(250*time.Millisecond))

	for i := 0; i < 19; i++ {
		s.Slower()
	}
	assertEq(t, 2500*time.Millisecond, s.Scale(250*time.Millisecond))
}

func TestSpeedClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.SliceOf(rapid.Bool()).Draw(t, "faster")

		s := NewSpeed()
		model := 10

		for _, faster := range ops {
			if faster {
				s.Faster()
				model = min(20, model+1)
			} else {
				s.Slower()
				model = max(1, model-1)
			}

			v := s.Value()
			if v < 0.1 || v > 2.0 {
				t.Fatalf("speed %v out of range", v)
			}
			if want := float64(model) / 10; v != want {
				t.Fatalf("speed %v, want %v", v, want)
			}
		}
	})
}

package buttons

import (
	"context"
	"testing"
	"time"

	"dev.acmcsuf.com/ledfx"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type chanSink chan ledfx.ButtonEvent

func (s chanSink) Send(ev ledfx.ButtonEvent) bool {
	select {
	case s <- ev:
		return true
	default:
		return false
	}
}

func expectEvent(t *testing.T, sink chanSink, want ledfx.ButtonEvent) {
	t.Helper()
	select {
	case got := <-sink:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %v", want)
	}
}

func expectNoEvent(t *testing.T, sink chanSink, wait time.Duration) {
	t.Helper()
	select {
	case got := <-sink:
		t.Fatalf("unexpected event %v", got)
	case <-time.After(wait):
	}
}

func TestGPIO(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO13", EdgesChan: make(chan gpio.Level)}
	sink := make(chanSink, 8)

	g, err := NewGPIO(map[ledfx.Button]gpio.PinIO{ledfx.ButtonA: pin}, sink, slogt.New(t))
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, pin.P)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- g.Run(ctx) }()

	pin.EdgesChan <- gpio.Low
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonA, Pressed: true})

	// Bounce on the same level.
	pin.EdgesChan <- gpio.Low
	expectNoEvent(t, sink, 50*time.Millisecond)

	pin.EdgesChan <- gpio.High
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonA, Pressed: false})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("GPIO did not stop")
	}
}

func TestTargetsFromMap(t *testing.T) {
	targets, err := TargetsFromMap(map[string]int{"HOME": 120})
	require.NoError(t, err)
	assert.Equal(t, []Target{{Button: ledfx.ButtonHome, Value: 120}}, targets)

	_, err = TargetsFromMap(map[string]int{"start": 120})
	assert.Error(t, err)
}

func TestLadderPoll(t *testing.T) {
	var reading float64
	read := func() (float64, error) { return reading, nil }

	sink := make(chanSink, 8)
	l := newLadder(read, LadderConfig{
		Targets: []Target{
			{Button: ledfx.ButtonUp, Value: 100},
			{Button: ledfx.ButtonDown, Value: 500},
		},
		Tolerance: 50,
	}, sink, slogt.New(t))

	sampleAt := func(v int) {
		reading = float64(v) * 32767 / 1000
		require.NoError(t, l.sample())
		l.poll()
	}

	// Nothing pressed.
	sampleAt(0)
	assert.Empty(t, sink)

	// A single matching poll is not enough.
	sampleAt(110)
	assert.Empty(t, sink)

	sampleAt(95)
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonUp, Pressed: true})

	// Holding does not repeat the press.
	sampleAt(100)
	assert.Empty(t, sink)

	// Sliding straight onto another button releases the first one.
	sampleAt(500)
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonUp, Pressed: false})
	sampleAt(500)
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonDown, Pressed: true})

	sampleAt(0)
	expectEvent(t, sink, ledfx.ButtonEvent{Button: ledfx.ButtonDown, Pressed: false})
}

func TestLadderGlitchNotReleased(t *testing.T) {
	var reading float64
	read := func() (float64, error) { return reading, nil }

	sink := make(chanSink, 8)
	l := newLadder(read, LadderConfig{
		Targets:   []Target{{Button: ledfx.ButtonB, Value: 300}},
		Tolerance: 20,
	}, sink, slogt.New(t))

	reading = 300 * 32767.0 / 1000
	require.NoError(t, l.sample())
	l.poll()

	reading = 0
	require.NoError(t, l.sample())
	l.poll()

	// The button never registered as pressed, so no release is sent.
	assert.Empty(t, sink)
}

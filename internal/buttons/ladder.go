package buttons

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"dev.acmcsuf.com/ledfx"
	"github.com/grant-carpenter/go-ads"
)

// Target is the ADC reading of a button on a resistor ladder.
type Target struct {
	Button ledfx.Button
	Value  int
}

// LadderConfig configures a resistor ladder.
type LadderConfig struct {
	// Targets are the readings of each button, scaled to 0..1000.
	Targets []Target
	// Tolerance is how far a reading may be from its target.
	Tolerance int
	// SampleRate is how often the ADC is read. Defaults to 5ms.
	SampleRate time.Duration
	// PollRate is how often the averaged samples are matched against the
	// targets. Defaults to 30ms.
	PollRate time.Duration
}

// TargetsFromMap builds ladder targets from a map of button names to
// readings.
func TargetsFromMap(m map[string]int) ([]Target, error) {
	buttons, err := parseButtons(m)
	if err != nil {
		return nil, err
	}

	targets := make([]Target, 0, len(buttons))
	for b, v := range buttons {
		targets = append(targets, Target{Button: b, Value: v})
	}
	return targets, nil
}

type targetRange struct {
	button ledfx.Button
	lower  int
	upper  int
}

func (r targetRange) inRange(v int) bool {
	return v >= r.lower && v <= r.upper
}

type sample struct {
	sum   int
	count int
}

func (s sample) result() int {
	if s.count == 0 {
		return 0
	}
	return s.sum / s.count
}

type buttonRegister struct {
	button   ledfx.Button
	accuracy int
}

// Ladder reads several buttons sharing one ADC input through a resistor
// ladder. A button counts as pressed once two consecutive polls match its
// target and as released once a poll matches no button.
type Ladder struct {
	read   func() (float64, error)
	close  func()
	cfg    LadderConfig
	ranges []targetRange
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	current sample

	register *buttonRegister
}

// NewLadder opens the ADS1115 at address 0x48 on I2C1.
func NewLadder(cfg LadderConfig, sink Sink, logger *slog.Logger) (*Ladder, error) {
	if err := ads.HostInit(); err != nil {
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}

	adc, err := ads.NewADS("I2C1", 0x48, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open ADS: %w", err)
	}
	adc.SetConfigGain(ads.ConfigGain2_3)

	read := func() (float64, error) {
		v, err := adc.ReadRetry(5)
		return float64(v), err
	}

	l := newLadder(read, cfg, sink, logger)
	l.close = func() { adc.Close() }
	return l, nil
}

func newLadder(read func() (float64, error), cfg LadderConfig, sink Sink, logger *slog.Logger) *Ladder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 5 * time.Millisecond
	}
	if cfg.PollRate <= 0 {
		cfg.PollRate = 30 * time.Millisecond
	}

	ranges := make([]targetRange, len(cfg.Targets))
	for i, t := range cfg.Targets {
		ranges[i] = targetRange{
			button: t.Button,
			lower:  t.Value - cfg.Tolerance,
			upper:  t.Value + cfg.Tolerance,
		}
	}

	return &Ladder{
		read:   read,
		cfg:    cfg,
		ranges: ranges,
		sink:   sink,
		logger: logger,
	}
}

// Run samples the ADC until ctx is done or a read fails.
func (l *Ladder) Run(ctx context.Context) error {
	if l.close != nil {
		defer l.close()
	}

	sampleTicker := time.NewTicker(l.cfg.SampleRate)
	defer sampleTicker.Stop()

	pollTicker := time.NewTicker(l.cfg.PollRate)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sampleTicker.C:
			if err := l.sample(); err != nil {
				return err
			}
		case <-pollTicker.C:
			l.poll()
		}
	}
}

func (l *Ladder) sample() error {
	v, err := l.read()
	if err != nil {
		return fmt.Errorf("failed to read ADS: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.current.sum += int(math.Round(v / 32767.0 * 1000.0))
	l.current.count++
	return nil
}

func (l *Ladder) takeSample() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := l.current.result()
	l.current = sample{}
	return result
}

func (l *Ladder) poll() {
	result := l.takeSample()

	for _, r := range l.ranges {
		if !r.inRange(result) {
			continue
		}

		if l.register != nil && l.register.button != r.button {
			l.release()
		}
		if l.register == nil {
			l.register = &buttonRegister{button: r.button}
		}

		l.register.accuracy++
		if l.register.accuracy == 2 {
			l.sink.Send(ledfx.ButtonEvent{Button: r.button, Pressed: true})
		}
		return
	}

	// No button matched, so whatever was held has been let go.
	l.release()
}

func (l *Ladder) release() {
	if l.register == nil {
		return
	}
	if l.register.accuracy >= 2 {
		l.sink.Send(ledfx.ButtonEvent{Button: l.register.button, Pressed: false})
	}
	l.register = nil
}

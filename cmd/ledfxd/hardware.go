package main

import (
	"context"
	"fmt"
	"log/slog"

	"dev.acmcsuf.com/ledfx"
	"dev.acmcsuf.com/ledfx/internal/buttons"
	"dev.acmcsuf.com/ledfx/internal/config"
	"dev.acmcsuf.com/ledfx/internal/power"
	"dev.acmcsuf.com/ledfx/internal/strip"
	"periph.io/x/host/v3"
)

type buttonSource interface {
	Run(ctx context.Context) error
}

type hostCloser interface {
	ledfx.Host
	Close() error
}

// hardware holds the devices opened from the config.
type hardware struct {
	cfg    *config.Config
	logger *slog.Logger

	strip  ledfx.Strip
	host   hostCloser
	closer []func() error
}

func openHardware(cfg *config.Config, exit func(), logger *slog.Logger) (*hardware, error) {
	hw := &hardware{
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Strip.Driver == "spi" || cfg.Buttons.Source == "gpio" {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize periph host: %w", err)
		}
	}

	if err := hw.openStrip(); err != nil {
		hw.Close()
		return nil, err
	}

	if cfg.Power.Enabled {
		h, err := power.Open(power.Config{
			PowerPin:     cfg.Power.PowerPin,
			BacklightPin: cfg.Power.BacklightPin,
		}, exit, logger.With("component", "power"))
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.host = h
	} else {
		hw.host = power.NewNoop(exit, logger.With("component", "power"))
	}

	return hw, nil
}

func (hw *hardware) openStrip() error {
	switch hw.cfg.Strip.Driver {
	case "ws281x":
		s, err := strip.NewWS281x(strip.WS281xConfig{
			NumPixels:  hw.cfg.Pixels,
			GPIOPin:    hw.cfg.Strip.GPIOPin,
			DMAChannel: hw.cfg.Strip.DMAChannel,
		})
		if err != nil {
			return err
		}
		hw.strip = s

	case "spi":
		s, err := strip.NewSPI(strip.SPIConfig{
			NumPixels:  hw.cfg.Pixels,
			Port:       hw.cfg.Strip.SPIPort,
			RefreshKHz: hw.cfg.Strip.SPIRefreshKHz,
		})
		if err != nil {
			return err
		}
		hw.strip = s
		hw.closer = append(hw.closer, s.Close)

	default:
		hw.strip = strip.NewSim(hw.cfg.Pixels, hw.logger.With("component", "strip"))
	}

	hw.logger.Info(
		"opened LED strip",
		"driver", hw.cfg.Strip.Driver,
		"pixels", hw.cfg.Pixels)

	return nil
}

// buttons creates the configured button source sending to sink. It returns
// nil if no source is configured.
func (hw *hardware) buttons(sink buttons.Sink) (buttonSource, error) {
	logger := hw.logger.With("component", "buttons")

	switch hw.cfg.Buttons.Source {
	case "gpio":
		pins, err := buttons.LookupPins(hw.cfg.Buttons.Pins)
		if err != nil {
			return nil, err
		}
		return buttons.NewGPIO(pins, sink, logger)

	case "ladder":
		targets, err := buttons.TargetsFromMap(hw.cfg.Buttons.Ladder)
		if err != nil {
			return nil, err
		}
		return buttons.NewLadder(buttons.LadderConfig{
			Targets:   targets,
			Tolerance: hw.cfg.Buttons.LadderTolerance,
		}, sink, logger)

	default:
		return nil, nil
	}
}

// Close releases the devices.
func (hw *hardware) Close() error {
	for i := len(hw.closer) - 1; i >= 0; i-- {
		if err := hw.closer[i](); err != nil {
			hw.logger.Warn(
				"failed to close device",
				"error", err)
		}
	}

	if hw.host != nil {
		return hw.host.Close()
	}
	return nil
}

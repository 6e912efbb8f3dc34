package strip

import (
	"fmt"

	"libdb.so/ledctl"
)

// WS281xConfig configures a WS281x strip driven over PWM and DMA.
type WS281xConfig struct {
	NumPixels  int
	GPIOPin    int
	DMAChannel int
}

// NewWS281x opens a WS281x strip.
func NewWS281x(cfg WS281xConfig) (*Controller, error) {
	ws281x, err := ledctl.NewWS281x(ledctl.WS281xConfig{
		NumPixels:    cfg.NumPixels,
		ColorOrder:   ledctl.BGROrder,
		ColorModel:   ledctl.RGBModel,
		PWMFrequency: 800000,
		DMAChannel:   cfg.DMAChannel,
		GPIOPins:     []int{cfg.GPIOPin},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create a WS281x controller: %w", err)
	}

	return NewController(ws281x, cfg.NumPixels), nil
}

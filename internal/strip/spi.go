package strip

import (
	"fmt"
	"sync"

	"dev.acmcsuf.com/ledfx"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// SPIConfig configures a WS281x strip driven over SPI.
type SPIConfig struct {
	NumPixels int
	// Port is the SPI port name. Empty picks the first port.
	Port string
	// RefreshKHz is the LED data rate.
	RefreshKHz int
}

// SPI is a WS281x strip driven over SPI. The host must have been
// initialized with periph.io/x/host/v3.
type SPI struct {
	port spi.PortCloser
	dev  *nrzled.Dev

	mu  sync.Mutex
	buf []byte
}

var _ ledfx.Strip = (*SPI)(nil)

// NewSPI opens a strip on an SPI port.
func NewSPI(cfg SPIConfig) (*SPI, error) {
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.Port, err)
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: cfg.NumPixels,
		Channels:  3,
		Freq:      physic.Frequency(cfg.RefreshKHz) * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create nrzled device: %w", err)
	}

	return &SPI{
		port: port,
		dev:  dev,
		buf:  make([]byte, cfg.NumPixels*3),
	}, nil
}

// Len implements ledfx.Strip.
func (s *SPI) Len() int {
	return len(s.buf) / 3
}

// SetRGBAt implements ledfx.Strip.
func (s *SPI) SetRGBAt(i int, color ledfx.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[i*3+0] = color.R
	s.buf[i*3+1] = color.G
	s.buf[i*3+2] = color.B
}

// Flush implements ledfx.Strip.
func (s *SPI) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("failed to write to SPI: %w", err)
	}
	return nil
}

// Close turns the LEDs off and releases the port.
func (s *SPI) Close() error {
	haltErr := s.dev.Halt()
	closeErr := s.port.Close()
	if haltErr != nil {
		return fmt.Errorf("failed to halt LEDs: %w", haltErr)
	}
	return closeErr
}

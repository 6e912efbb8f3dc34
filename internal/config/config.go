// Package config loads the daemon configuration from the environment and an
// optional YAML file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Pixels is the number of LEDs on the strip.
	Pixels int `yaml:"pixels" env:"LEDFX_PIXELS,default=5"`
	// QueueSize is the number of pending button events.
	QueueSize int `yaml:"queue_size" env:"LEDFX_QUEUE_SIZE,default=8"`

	Strip   Strip   `yaml:"strip" env:",prefix=LEDFX_STRIP_"`
	Buttons Buttons `yaml:"buttons" env:",prefix=LEDFX_BUTTONS_"`
	Power   Power   `yaml:"power" env:",prefix=LEDFX_POWER_"`
	Effects Effects `yaml:"effects" env:",prefix=LEDFX_EFFECTS_"`
	MQTT    MQTT    `yaml:"mqtt" env:",prefix=LEDFX_MQTT_"`
}

// Strip configures the LED strip driver.
type Strip struct {
	// Driver is one of "ws281x", "spi" or "sim".
	Driver string `yaml:"driver" env:"DRIVER,default=sim"`
	// GPIOPin is the PWM data pin of a ws281x strip.
	GPIOPin int `yaml:"gpio_pin" env:"GPIO_PIN,default=12"`
	// DMAChannel is the DMA channel of a ws281x strip.
	DMAChannel int `yaml:"dma_channel" env:"DMA_CHANNEL,default=10"`
	// SPIPort is the SPI port name of an spi strip. Empty picks the first
	// port found.
	SPIPort string `yaml:"spi_port" env:"SPI_PORT"`
	// SPIRefreshKHz is the LED refresh rate of an spi strip.
	SPIRefreshKHz int `yaml:"spi_refresh_khz" env:"SPI_REFRESH_KHZ,default=800"`
}

// Buttons configures where button presses come from.
type Buttons struct {
	// Source is one of "gpio", "ladder" or "none".
	Source string `yaml:"source" env:"SOURCE,default=none"`
	// Pins maps button names to GPIO pin names for the gpio source.
	Pins map[string]string `yaml:"pins" env:"PINS,default=up:GPIO5,down:GPIO6,a:GPIO13,b:GPIO19,home:GPIO26,select:GPIO21"`
	// Ladder maps button names to ADC readings for the ladder source.
	Ladder map[string]int `yaml:"ladder" env:"LADDER,default=up:100,down:250,a:400,b:550,home:700,select:850"`
	// LadderTolerance is how far a reading may be from its target.
	LadderTolerance int `yaml:"ladder_tolerance" env:"LADDER_TOLERANCE,default=50"`
}

// Power configures the power and backlight pins.
type Power struct {
	// Enabled turns on control of the power and backlight pins.
	Enabled bool `yaml:"enabled" env:"ENABLED,default=false"`
	// PowerPin is the BCM number of the pin powering the LEDs.
	PowerPin int `yaml:"power_pin" env:"POWER_PIN,default=19"`
	// BacklightPin is the BCM number of the PWM backlight pin.
	BacklightPin int `yaml:"backlight_pin" env:"BACKLIGHT_PIN,default=18"`
}

// Effects configures the effects. The list of effects is fixed.
type Effects struct {
	// SharedSpeed makes all effects share one speed.
	SharedSpeed bool `yaml:"shared_speed" env:"SHARED_SPEED,default=false"`
	// CircleMarker is the LED that the circle effect keeps lit.
	CircleMarker int `yaml:"circle_marker" env:"CIRCLE_MARKER,default=1"`
	// CircleColors are the color sources of the circle effect: "cycle",
	// "mch" or "rgb". The first one is used initially.
	CircleColors []string `yaml:"circle_colors" env:"CIRCLE_COLORS,default=cycle,mch,rgb"`
	// RunnerPath are the LEDs the runner effect bounces between.
	RunnerPath []int `yaml:"runner_path" env:"RUNNER_PATH,default=4,1,2"`
}

// MQTT configures publishing of the effect state.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883. Empty disables
	// publishing.
	Broker string `yaml:"broker" env:"BROKER"`
	// ClientID is the MQTT client ID.
	ClientID string `yaml:"client_id" env:"CLIENT_ID,default=ledfx"`
	// TopicPrefix is prepended to every topic.
	TopicPrefix string `yaml:"topic_prefix" env:"TOPIC_PREFIX,default=LEDFX"`
}

// Load reads the configuration from the environment and then from the YAML
// file at path. Values in the file win over the environment. A missing file
// is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is like Load but looks up environment variables with l.
func LoadWith(ctx context.Context, path string, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Pixels < 2 {
		return fmt.Errorf("need at least 2 pixels, got %d", c.Pixels)
	}

	switch c.Strip.Driver {
	case "ws281x", "spi", "sim":
	default:
		return fmt.Errorf("unknown strip driver %q", c.Strip.Driver)
	}

	switch c.Buttons.Source {
	case "gpio", "ladder", "none":
	default:
		return fmt.Errorf("unknown button source %q", c.Buttons.Source)
	}

	if c.Effects.CircleMarker < 0 || c.Effects.CircleMarker >= c.Pixels {
		return fmt.Errorf("circle marker %d outside of %d pixels", c.Effects.CircleMarker, c.Pixels)
	}

	if len(c.Effects.RunnerPath) == 0 {
		return errors.New("runner path is empty")
	}
	for _, i := range c.Effects.RunnerPath {
		if i < 0 || i >= c.Pixels {
			return fmt.Errorf("runner pixel %d outside of %d pixels", i, c.Pixels)
		}
	}

	for _, name := range c.Effects.CircleColors {
		switch name {
		case "cycle", "mch", "rgb":
		default:
			return fmt.Errorf("unknown circle color source %q", name)
		}
	}

	return nil
}

package snowman

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file of the snowman daemon. Anything
// that the file leaves out keeps its default.
type Config struct {
	// Windows are the times of day during which the units may display.
	Windows Window `yaml:"windows"`
	// Cheerlights configures the ambient color feed.
	Cheerlights FeedConfig `yaml:"cheerlights"`
	// PIR configures the motion sensor.
	PIR PIRConfig `yaml:"pir"`
	// Strip configures the LED strip hardware.
	Strip StripConfig `yaml:"strip"`
}

// FeedConfig configures the ambient color feed.
type FeedConfig struct {
	Broker          string `yaml:"broker"`
	Topic           string `yaml:"topic"`
	QoS             byte   `yaml:"qos"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (c FeedConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutS) * time.Second
}

// PIRConfig configures the motion sensor.
type PIRConfig struct {
	// Pin is the GPIO name of the sensor's signal pin.
	Pin string `yaml:"pin"`
}

// StripConfig configures the LED strip hardware.
type StripConfig struct {
	GPIOPin      int `yaml:"gpio_pin"`
	DMAChannel   int `yaml:"dma_channel"`
	PWMFrequency int `yaml:"pwm_frequency"`
}

// DefaultConfig returns the configuration used when there is no config file.
func DefaultConfig() *Config {
	return &Config{
		Windows: append(Window(nil), DefaultWindow...),
		Cheerlights: FeedConfig{
			Broker:          "tcp://mqtt.cheerlights.com:1883",
			Topic:           "hex",
			ConnectTimeoutS: 10,
		},
		PIR: PIRConfig{
			Pin: "GPIO16",
		},
		Strip: StripConfig{
			GPIOPin:      18,
			DMAChannel:   10,
			PWMFrequency: 800000,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration, filling in defaults for empty fields.
func Validate(cfg *Config) error {
	if err := cfg.Windows.Validate(); err != nil {
		return fmt.Errorf("windows: %w", err)
	}

	defaults := DefaultConfig()

	if cfg.Cheerlights.Broker == "" {
		cfg.Cheerlights.Broker = defaults.Cheerlights.Broker
	}
	if cfg.Cheerlights.Topic == "" {
		cfg.Cheerlights.Topic = defaults.Cheerlights.Topic
	}
	if cfg.Cheerlights.QoS > 2 {
		return fmt.Errorf("cheerlights.qos must be 0, 1 or 2")
	}
	if cfg.Cheerlights.ConnectTimeoutS <= 0 {
		cfg.Cheerlights.ConnectTimeoutS = defaults.Cheerlights.ConnectTimeoutS
	}

	if cfg.PIR.Pin == "" {
		cfg.PIR.Pin = defaults.PIR.Pin
	}

	if cfg.Strip.GPIOPin <= 0 {
		cfg.Strip.GPIOPin = defaults.Strip.GPIOPin
	}
	if cfg.Strip.DMAChannel <= 0 {
		cfg.Strip.DMAChannel = defaults.Strip.DMAChannel
	}
	if cfg.Strip.PWMFrequency <= 0 {
		cfg.Strip.PWMFrequency = defaults.Strip.PWMFrequency
	}

	return nil
}

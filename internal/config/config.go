// Package config holds the daemon's tunables: defaults, an optional YAML
// file, and JUKECAB_* environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// `50ms` or `5m`.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full daemon configuration.
type Config struct {
	// ALSACard is a substring of the ALSA card name to mute/unmute and
	// play through
	ALSACard string `yaml:"alsa_card"`

	// ALSAMixer is the mixer control name carrying the mute switch
	ALSAMixer string `yaml:"alsa_mixer"`

	// GPIOChip is the GPIO chip name or /dev path holding the door
	// switch line
	GPIOChip string `yaml:"gpio_chip"`

	// GPIOPin is the door switch line offset (shorted to ground when
	// the door is closed)
	GPIOPin int `yaml:"gpio_pin"`

	// SwitchDebounce is the settle delay after a switch edge
	SwitchDebounce Duration `yaml:"switch_debounce"`

	// DoorDebounce is the unmute lockout after a mute
	DoorDebounce Duration `yaml:"door_debounce"`

	// AutoMuteDelay is how long the output may stay unmuted before a
	// forced mute
	AutoMuteDelay Duration `yaml:"auto_mute_delay"`

	// PollInterval is how long to wait between schedule checks when no
	// directory matches
	PollInterval Duration `yaml:"poll_interval"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		ALSACard:       "default",
		ALSAMixer:      "Master",
		GPIOChip:       "gpiochip0",
		GPIOPin:        3,
		SwitchDebounce: Duration(50 * time.Millisecond),
		DoorDebounce:   Duration(time.Second),
		AutoMuteDelay:  Duration(5 * time.Minute),
		PollInterval:   Duration(10 * time.Second),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty; a missing file is an error), then environment
// variables.
func Load(path string, logger *zap.Logger) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		logger.Info("Loaded configuration file", zap.String("path", path))
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides cfg fields from JUKECAB_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("JUKECAB_ALSA_CARD"); v != "" {
		cfg.ALSACard = v
	}
	if v := os.Getenv("JUKECAB_ALSA_MIXER"); v != "" {
		cfg.ALSAMixer = v
	}
	if v := os.Getenv("JUKECAB_GPIO_CHIP"); v != "" {
		cfg.GPIOChip = v
	}
	if v := os.Getenv("JUKECAB_GPIO_PIN"); v != "" {
		pin, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JUKECAB_GPIO_PIN %q: %w", v, err)
		}
		cfg.GPIOPin = pin
	}

	durations := []struct {
		env    string
		target *Duration
	}{
		{"JUKECAB_SWITCH_DEBOUNCE", &cfg.SwitchDebounce},
		{"JUKECAB_DOOR_DEBOUNCE", &cfg.DoorDebounce},
		{"JUKECAB_AUTO_MUTE_DELAY", &cfg.AutoMuteDelay},
		{"JUKECAB_POLL_INTERVAL", &cfg.PollInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.target = Duration(parsed)
	}

	return nil
}

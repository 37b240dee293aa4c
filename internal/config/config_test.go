package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	cfg, err := Load("", logger)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.ALSACard)
	assert.Equal(t, "Master", cfg.ALSAMixer)
	assert.Equal(t, "gpiochip0", cfg.GPIOChip)
	assert.Equal(t, 3, cfg.GPIOPin)
	assert.Equal(t, 50*time.Millisecond, cfg.SwitchDebounce.Std())
	assert.Equal(t, time.Second, cfg.DoorDebounce.Std())
	assert.Equal(t, 5*time.Minute, cfg.AutoMuteDelay.Std())
	assert.Equal(t, 10*time.Second, cfg.PollInterval.Std())
}

func TestLoad_YAMLFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "jukecab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
alsa_card: USB
gpio_pin: 17
auto_mute_delay: 2m30s
`), 0o644))

	cfg, err := Load(path, logger)
	require.NoError(t, err)

	assert.Equal(t, "USB", cfg.ALSACard)
	assert.Equal(t, 17, cfg.GPIOPin)
	assert.Equal(t, 150*time.Second, cfg.AutoMuteDelay.Std())

	// Untouched fields keep their defaults
	assert.Equal(t, "Master", cfg.ALSAMixer)
	assert.Equal(t, 50*time.Millisecond, cfg.SwitchDebounce.Std())
}

func TestLoad_BadDurationInFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "jukecab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("door_debounce: soon\n"), 0o644))

	_, err := Load(path, logger)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), logger)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	t.Setenv("JUKECAB_ALSA_MIXER", "Speaker")
	t.Setenv("JUKECAB_GPIO_PIN", "27")
	t.Setenv("JUKECAB_POLL_INTERVAL", "30s")

	cfg, err := Load("", logger)
	require.NoError(t, err)

	assert.Equal(t, "Speaker", cfg.ALSAMixer)
	assert.Equal(t, 27, cfg.GPIOPin)
	assert.Equal(t, 30*time.Second, cfg.PollInterval.Std())
}

func TestLoad_BadEnvValues(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Setenv("JUKECAB_GPIO_PIN", "three")
	_, err := Load("", logger)
	assert.Error(t, err)
}

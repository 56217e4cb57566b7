package malamute

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	var cfg = DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8, cfg.GoertzelBlock())
}

func TestConfigValidation(t *testing.T) {
	var cases = []struct {
		name  string
		mutate func(c *Config)
	}{
		{"zero mark", func(c *Config) { c.MarkFreq = 0 }},
		{"negative space", func(c *Config) { c.SpaceFreq = -2200 }},
		{"equal tones", func(c *Config) { c.SpaceFreq = c.MarkFreq }},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"rate not multiple of baud", func(c *Config) { c.SampleRate = 9601 }},
		{"too few samples per bit", func(c *Config) { c.SampleRate = c.BaudRate }},
		{"table length not power of two", func(c *Config) { c.SamplesPerCycle = 33 }},
		{"amplitude too high", func(c *Config) { c.Amplitude = 1.5 }},
		{"amplitude negative", func(c *Config) { c.Amplitude = -0.1 }},
		{"zero timer base", func(c *Config) { c.TimerBase = 0 }},
		{"timer too slow", func(c *Config) { c.TimerBase = 1000 }},
		{"negative delay", func(c *Config) { c.TxDelayMS = -1 }},
		{"bad ptt method", func(c *Config) { c.PTT.Method = "telepathy" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg = DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "tnc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mark_freq: 1600
space_freq: 1800
baud_rate: 300
sample_rate: 9600
ptt:
  method: gpiod
  chip: gpiochip0
  line: 17
kiss:
  tcp_port: 8001
`), 0644))

	var cfg, err = LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1600, cfg.MarkFreq)
	assert.Equal(t, 1800, cfg.SpaceFreq)
	assert.Equal(t, 300, cfg.BaudRate)
	assert.Equal(t, 32, cfg.GoertzelBlock())
	assert.Equal(t, "gpiod", cfg.PTT.Method)
	assert.Equal(t, 17, cfg.PTT.Line)
	assert.Equal(t, 8001, cfg.KISS.TCPPort)

	// Untouched keys keep their defaults.
	assert.Equal(t, 0.8, cfg.Amplitude)
	assert.Equal(t, 57600, cfg.KISS.SerialBaud)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: 9601\n"), 0644))

	var _, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	var _, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "mangled.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mark_freq: [not a number\n"), 0644))

	var _, err = LoadConfig(path)
	assert.Error(t, err)
}

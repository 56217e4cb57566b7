package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Modem and TNC configuration.
 *
 * Description:	One flat structure covering the modem parameters,
 *		the PTT wiring, and the KISS host link.  It can be
 *		filled from a YAML file, from command line flags, or
 *		both (flags win).
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PTTConfig selects how the transmitter is keyed.
type PTTConfig struct {
	// Method is one of "none", "gpiod", "serial".
	Method string `yaml:"method"`

	// For gpiod: GPIO character device and line offsets.
	Chip    string `yaml:"chip"`
	Line    int    `yaml:"line"`
	LEDLine int    `yaml:"led_line"`
	HaveLED bool   `yaml:"have_led"`
	Invert  bool   `yaml:"invert"`

	// For serial: device and modem control signal ("rts" or "dtr").
	Device string `yaml:"device"`
	Signal string `yaml:"signal"`
}

// KISSConfig describes the host side transports.
type KISSConfig struct {
	SerialDevice string `yaml:"serial_device"` // empty disables
	SerialBaud   int    `yaml:"serial_baud"`
	TCPPort      int    `yaml:"tcp_port"` // 0 disables
	PTY          bool   `yaml:"pty"`      // create a pseudo terminal endpoint
	DNSSDName    string `yaml:"dnssd_name"`
}

type Config struct {
	MarkFreq        int     `yaml:"mark_freq"`         // Hz, logical 1
	SpaceFreq       int     `yaml:"space_freq"`        // Hz, logical 0
	BaudRate        int     `yaml:"baud_rate"`         // bits per second
	SampleRate      int     `yaml:"sample_rate"`       // ADC sample rate, Hz
	SamplesPerCycle int     `yaml:"samples_per_cycle"` // DAC table length, power of two
	Amplitude       float64 `yaml:"amplitude"`         // 0.0 to 1.0
	TimerBase       uint64  `yaml:"timer_base"`        // sample clock resolution, ticks per second
	ADCMidpoint     int     `yaml:"adc_midpoint"`

	TxDelayMS      int `yaml:"tx_delay_ms"` // PTT up to first bit
	TxTailMS       int `yaml:"tx_tail_ms"`  // last bit to PTT down
	PreambleFlags  int `yaml:"preamble_flags"`
	PostambleFlags int `yaml:"postamble_flags"`

	PTT  PTTConfig  `yaml:"ptt"`
	KISS KISSConfig `yaml:"kiss"`

	// Directory for daily received frame logs.  Empty disables.
	LogDir string `yaml:"log_dir"`

	// Waveform table cache database.  Empty disables.
	TableCache string `yaml:"table_cache"`
}

func DefaultConfig() Config {
	return Config{
		MarkFreq:        1200,
		SpaceFreq:       2200,
		BaudRate:        1200,
		SampleRate:      9600,
		SamplesPerCycle: 32,
		Amplitude:       0.8,
		TimerBase:       10_000_000,
		ADCMidpoint:     adcResolution / 2,
		TxDelayMS:       50,
		TxTailMS:        50,
		PreambleFlags:   8,
		PostambleFlags:  2,
		PTT:             PTTConfig{Method: "none", Signal: "rts"},
		KISS:            KISSConfig{SerialBaud: 57600},
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg = DefaultConfig()

	var data, err = os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// GoertzelBlock is the number of ADC samples per bit decision.
// The demodulator yields one bit per block, so SampleRate/block
// must equal the baud rate for the bits to line up.
func (c *Config) GoertzelBlock() int {
	return c.SampleRate / c.BaudRate
}

func (c *Config) Validate() error {
	if c.MarkFreq <= 0 || c.SpaceFreq <= 0 {
		return fmt.Errorf("tone frequencies must be positive, got mark %d space %d", c.MarkFreq, c.SpaceFreq)
	}
	if c.MarkFreq == c.SpaceFreq {
		return fmt.Errorf("mark and space frequencies must differ, got %d", c.MarkFreq)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.BaudRate)
	}
	if c.SampleRate <= 0 || c.SampleRate%c.BaudRate != 0 {
		return fmt.Errorf("sample rate must be a positive multiple of the baud rate, got %d at %d baud", c.SampleRate, c.BaudRate)
	}
	if c.GoertzelBlock() < 2 {
		return fmt.Errorf("sample rate %d leaves fewer than 2 samples per bit at %d baud", c.SampleRate, c.BaudRate)
	}
	if !isPowerOfTwo(c.SamplesPerCycle) {
		return fmt.Errorf("samples per cycle must be a non-zero power of two, got %d", c.SamplesPerCycle)
	}
	if c.Amplitude < 0.0 || c.Amplitude > 1.0 {
		return fmt.Errorf("amplitude must be within 0.0 to 1.0, got %g", c.Amplitude)
	}
	if c.TimerBase == 0 {
		return fmt.Errorf("timer base must be positive")
	}
	// Each tone must get at least one timer tick per sample.
	for _, f := range []int{c.MarkFreq, c.SpaceFreq} {
		if c.TimerBase/uint64(f*c.SamplesPerCycle) == 0 {
			return fmt.Errorf("timer base %d too slow for %d Hz at %d samples per cycle", c.TimerBase, f, c.SamplesPerCycle)
		}
	}
	if c.TxDelayMS < 0 || c.TxTailMS < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}
	if c.ADCMidpoint <= 0 {
		return fmt.Errorf("ADC midpoint must be positive, got %d", c.ADCMidpoint)
	}

	switch c.PTT.Method {
	case "", "none", "gpiod", "serial":
	default:
		return fmt.Errorf("unknown PTT method %q", c.PTT.Method)
	}

	return nil
}

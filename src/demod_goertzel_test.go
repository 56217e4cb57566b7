package malamute

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// synthAFSK renders physical NRZI levels as 12 bit ADC samples, one
// Goertzel block per level, with the phase carried across level
// changes the way a real transmitter does it.
type afskSynth struct {
	cfg   *Config
	phase float64
	amp   float64
}

func (a *afskSynth) bit(out []int, level int) []int {
	var freq = a.cfg.SpaceFreq
	if level != 0 {
		freq = a.cfg.MarkFreq
	}
	for i := 0; i < a.cfg.GoertzelBlock(); i++ {
		out = append(out, a.cfg.ADCMidpoint+int(a.amp*math.Sin(a.phase)))
		a.phase += 2.0 * math.Pi * float64(freq) / float64(a.cfg.SampleRate)
	}
	return out
}

func synthAFSK(cfg *Config, levels []int) []int {
	var s = afskSynth{cfg: cfg, amp: 1000}
	var out []int
	for _, b := range levels {
		out = s.bit(out, b)
	}
	return out
}

func TestGoertzelSteadyTones(t *testing.T) {
	var cfg = DefaultConfig()
	var g = newGoertzelDemod(&cfg)

	var src = &bufferSource{data: synthAFSK(&cfg, []int{1, 1, 1, 0, 0, 0})}

	for i := 0; i < 3; i++ {
		var bit, err = g.ProcessBlock(src)
		require.NoError(t, err)
		assert.Equalf(t, 1, bit, "mark block %d", i)
	}
	for i := 0; i < 3; i++ {
		var bit, err = g.ProcessBlock(src)
		require.NoError(t, err)
		assert.Equalf(t, 0, bit, "space block %d", i)
	}
}

// TestGoertzelRandomLevels demodulates arbitrary level sequences and
// expects every block decision to match the tone that was sent.
func TestGoertzelRandomLevels(t *testing.T) {
	var cfg = DefaultConfig()

	rapid.Check(t, func(t *rapid.T) {
		var levels = rapid.SliceOfN(rapid.IntRange(0, 1), 1, 200).Draw(t, "levels")

		var g = newGoertzelDemod(&cfg)
		var src = &bufferSource{data: synthAFSK(&cfg, levels)}

		for i, want := range levels {
			var got, err = g.ProcessBlock(src)
			require.NoError(t, err)
			assert.Equalf(t, want, got, "block %d", i)
		}
	})
}

// TestGoertzelSilenceIsSpace pins the tie break: an idle input with
// no energy at either tone must come out as space, not flap.
func TestGoertzelSilenceIsSpace(t *testing.T) {
	var cfg = DefaultConfig()
	var g = newGoertzelDemod(&cfg)

	var silence = make([]int, cfg.GoertzelBlock())
	for i := range silence {
		silence[i] = cfg.ADCMidpoint
	}

	var bit, err = g.ProcessBlock(&bufferSource{data: silence})
	require.NoError(t, err)
	assert.Equal(t, 0, bit)
}

func TestGoertzelSourceErrorPropagates(t *testing.T) {
	var cfg = DefaultConfig()
	var g = newGoertzelDemod(&cfg)

	// Source dries up mid block.
	var src = &bufferSource{data: make([]int, cfg.GoertzelBlock()/2)}

	src.data[0] = cfg.ADCMidpoint
	var _, err = g.ProcessBlock(src)
	assert.ErrorIs(t, err, io.EOF)
}

package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate the quantized sine tables for the two AFSK
 *		tones.
 *
 * Description:	Each tone owns one table holding exactly one cycle of
 *		a sine wave, quantized to the 8 bit unsigned range of
 *		the DAC.  The sample clock is retuned per tone so the
 *		same table length serves both frequencies.
 *
 *		Tables are immutable once generated and must be
 *		regenerated when the sample count or amplitude
 *		changes.  They may also come from the non-volatile
 *		cache, see tablecache.go.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
)

// Tone identifies one of the two AFSK tones.
type Tone int

const (
	ToneSpace Tone = iota // logical 0
	ToneMark              // logical 1
)

func (t Tone) String() string {
	if t == ToneMark {
		return "mark"
	}
	return "space"
}

const (
	dacMaxValue   = 255
	dacMidpoint   = dacMaxValue / 2
	adcResolution = 4096
)

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

/*------------------------------------------------------------------
 *
 * Name:	generateWaveTable
 *
 * Purpose:	Produce one cycle of a sine wave as DAC samples.
 *
 * Inputs:	n		- Number of samples.  Must be a power
 *				  of two so playback can wrap with a
 *				  mask instead of a divide.
 *
 *		amplitude	- 0.0 to 1.0 of the available swing
 *				  around the DAC midpoint.
 *
 * Returns:	Table of n samples, or a configuration error for
 *		invalid inputs.  Nothing is ever transmitted from an
 *		invalid configuration.
 *
 *---------------------------------------------------------------*/

func generateWaveTable(n int, amplitude float64) ([]uint8, error) {
	if !isPowerOfTwo(n) {
		return nil, fmt.Errorf("samples per cycle must be a non-zero power of two, got %d", n)
	}
	if amplitude < 0.0 || amplitude > 1.0 {
		return nil, fmt.Errorf("amplitude must be within 0.0 to 1.0, got %g", amplitude)
	}

	var table = make([]uint8, n)
	for i := range table {
		var angle = 2.0 * math.Pi * float64(i) / float64(n)
		table[i] = uint8(dacMidpoint + amplitude*dacMidpoint*math.Sin(angle))
	}
	return table, nil
}

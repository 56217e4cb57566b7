package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	AFSK demodulator using the Goertzel algorithm.
 *
 * Description:	The Goertzel algorithm evaluates a single DFT bin
 *		with a second order recurrence, which makes it cheap
 *		enough to run twice per sample - once for each tone -
 *		on very small hardware.
 *
 *		For target frequency f at sample rate fs, precompute
 *
 *			coeff = 2 cos(2 pi f / fs)
 *
 *		then for each centered sample s
 *
 *			q0 = coeff * q1 - q2 + s
 *			q2 = q1
 *			q1 = q0
 *
 *		and after N samples the squared magnitude is
 *
 *			q1^2 + q2^2 - q1 * q2 * coeff
 *
 *		One block of N samples produces one bit decision, so
 *		fs / N must equal the transmit baud rate; config
 *		validation enforces that.  Whichever tone has more
 *		energy wins, with ties going to space.
 *
 *---------------------------------------------------------------*/

import (
	"math"
)

type goertzelDemod struct {
	coeffMark  float64
	coeffSpace float64
	blockSize  int
	midpoint   int
}

func newGoertzelDemod(cfg *Config) *goertzelDemod {
	return &goertzelDemod{
		coeffMark:  2.0 * math.Cos(2.0*math.Pi*float64(cfg.MarkFreq)/float64(cfg.SampleRate)),
		coeffSpace: 2.0 * math.Cos(2.0*math.Pi*float64(cfg.SpaceFreq)/float64(cfg.SampleRate)),
		blockSize:  cfg.GoertzelBlock(),
		midpoint:   cfg.ADCMidpoint,
	}
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessBlock
 *
 * Purpose:	Read one block of samples and decide one bit.
 *
 * Inputs:	src	- Blocking sample source.
 *
 * Returns:	1 for mark, 0 for space, or the source's error
 *		(io.EOF when a canned source runs dry).
 *
 *---------------------------------------------------------------*/

func (g *goertzelDemod) ProcessBlock(src SampleSource) (int, error) {
	var qm1, qm2, qs1, qs2 float64

	for i := 0; i < g.blockSize; i++ {
		var raw, err = src.ReadSample()
		if err != nil {
			return 0, err
		}
		var in = float64(raw - g.midpoint)

		var qm = g.coeffMark*qm1 - qm2 + in
		qm2 = qm1
		qm1 = qm

		var qs = g.coeffSpace*qs1 - qs2 + in
		qs2 = qs1
		qs1 = qs
	}

	var magMark = qm1*qm1 + qm2*qm2 - qm1*qm2*g.coeffMark
	var magSpace = qs1*qs1 + qs2*qs2 - qs1*qs2*g.coeffSpace

	if magMark > magSpace {
		return 1, nil
	}
	return 0, nil
}

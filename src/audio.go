package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	The hardware boundary for both directions.
 *
 * Description:	On real hardware the transmit side is a DAC fed by a
 *		periodic timer and the receive side is an ADC read in
 *		a blocking loop.  Everything above that boundary only
 *		sees these small interfaces, so the unit tests can run
 *		against a virtual clock and canned sample buffers, and
 *		the soundcard backend (audio_portaudio.go) can stand in
 *		for the real converters.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
)

// SampleSink accepts DAC samples from the modulator.  The modulator
// announces the spacing of the samples it is about to write in ticks
// of the timer base clock; the sink realizes that timing however it
// can (a hardware timer, a resampler, or just bookkeeping in tests).
type SampleSink interface {
	// SetSamplePeriod is called whenever the active tone changes.
	SetSamplePeriod(ticks uint32) error

	// WriteSample outputs one sample, held for the current period.
	WriteSample(v uint8) error

	// Rest stops the sample clock and parks the output at v.
	Rest(v uint8) error

	// Flush pushes out anything buffered.
	Flush() error
}

// SampleSource supplies ADC samples in the unsigned 12 bit range,
// blocking until one is available.
type SampleSource interface {
	ReadSample() (int, error)
}

// outputLine is a digital output such as a GPIO line.  Matches the
// subset of gpiocdev.Line the PTT code needs, so tests can substitute
// a recording double.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

/*
 * In-memory implementations.  captureSink records what the modulator
 * produced, with per-sample periods, and is also what the transmit
 * tests inspect.  bufferSource replays a prepared sample vector.
 */

type captureSink struct {
	period    uint32
	samples   []uint8
	periods   []uint32
	restLevel uint8
	resting   bool
	flushes   int
}

func (s *captureSink) SetSamplePeriod(ticks uint32) error {
	if ticks == 0 {
		return fmt.Errorf("zero sample period")
	}
	s.period = ticks
	s.resting = false
	return nil
}

func (s *captureSink) WriteSample(v uint8) error {
	if s.period == 0 {
		return fmt.Errorf("sample written before period was set")
	}
	s.samples = append(s.samples, v)
	s.periods = append(s.periods, s.period)
	return nil
}

func (s *captureSink) Rest(v uint8) error {
	s.restLevel = v
	s.resting = true
	return nil
}

func (s *captureSink) Flush() error {
	s.flushes++
	return nil
}

type bufferSource struct {
	data []int
	pos  int
}

func (s *bufferSource) ReadSample() (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	var v = s.data[s.pos]
	s.pos++
	return v, nil
}

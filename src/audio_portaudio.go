package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Soundcard backend using PortAudio.
 *
 * Description:	For development and for running against a real radio
 *		through a sound interface, the DAC and ADC of the
 *		hardware design map onto soundcard streams.
 *
 *		Input is simple: a fixed rate stream, each int16
 *		sample rescaled into the unsigned 12 bit range the
 *		demodulator expects.
 *
 *		Output needs a little care.  The modulator produces
 *		samples on a variable clock (the sample period is
 *		retuned per tone) while the soundcard runs at a fixed
 *		host rate, so the sink resamples by holding each DAC
 *		sample for its period and emitting host samples from a
 *		fractional tick accumulator.  Zero order hold is
 *		plenty here; the waveform is a table sine at audio
 *		frequencies.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

/*
 * Receive side.
 */

type paSource struct {
	stream *portaudio.Stream
	buf    []int16
	pos    int
}

// openPortAudioSource opens the default input device at the modem
// sample rate.
func openPortAudioSource(sampleRate int, blockSize int) (*paSource, error) {
	var s = &paSource{
		buf: make([]int16, blockSize),
	}
	s.pos = len(s.buf) // force a read on first use

	var stream, err = portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(s.buf), s.buf)
	if err != nil {
		return nil, fmt.Errorf("open audio input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start audio input: %w", err)
	}

	s.stream = stream
	return s, nil
}

func (s *paSource) ReadSample() (int, error) {
	if s.pos >= len(s.buf) {
		if err := s.stream.Read(); err != nil {
			return 0, fmt.Errorf("read audio input: %w", err)
		}
		s.pos = 0
	}

	var v = s.buf[s.pos]
	s.pos++

	// int16 to unsigned 12 bit around the ADC midpoint.
	return (int(v) >> 4) + adcResolution/2, nil
}

func (s *paSource) Close() error {
	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	var err = s.stream.Close()
	s.stream = nil
	return err
}

/*
 * Transmit side.
 */

type paSink struct {
	stream *portaudio.Stream
	out    []int16
	pos    int

	ticksPerHost float64 // timer ticks per host sample
	period       uint32  // current ticks per DAC sample
	acc          float64 // tick balance owed to the host stream
}

// openPortAudioSink opens the default output device.  hostRate is
// the soundcard rate, independent of the modem sample clock.
func openPortAudioSink(timerBase uint64, hostRate int, bufFrames int) (*paSink, error) {
	var s = &paSink{
		out:          make([]int16, bufFrames),
		ticksPerHost: float64(timerBase) / float64(hostRate),
	}

	var stream, err = portaudio.OpenDefaultStream(0, 1, float64(hostRate), len(s.out), s.out)
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start audio output: %w", err)
	}

	s.stream = stream
	return s, nil
}

func (s *paSink) SetSamplePeriod(ticks uint32) error {
	if ticks == 0 {
		return fmt.Errorf("zero sample period")
	}
	s.period = ticks
	return nil
}

func (s *paSink) WriteSample(v uint8) error {
	if s.period == 0 {
		return fmt.Errorf("sample written before period was set")
	}

	// DAC sample to signed 16 bit, clamped at the top since the
	// 8 bit range is not symmetric around the midpoint.
	var lv = (int(v) - dacMidpoint) * 256
	if lv > 32767 {
		lv = 32767
	}
	var level = int16(lv)

	s.acc += float64(s.period)
	for s.acc >= s.ticksPerHost {
		s.acc -= s.ticksPerHost
		if err := s.push(level); err != nil {
			return err
		}
	}
	return nil
}

func (s *paSink) push(level int16) error {
	s.out[s.pos] = level
	s.pos++
	if s.pos == len(s.out) {
		s.pos = 0
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("write audio output: %w", err)
		}
	}
	return nil
}

func (s *paSink) Rest(v uint8) error {
	// Clock stopped; leave the line at the converted rest level,
	// which for the midpoint is silence.
	s.period = 0
	s.acc = 0
	return nil
}

func (s *paSink) Flush() error {
	if s.pos == 0 {
		return nil
	}
	for s.pos != 0 {
		if err := s.push(0); err != nil {
			return err
		}
	}
	return nil
}

func (s *paSink) Close() error {
	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	var err = s.stream.Close()
	s.stream = nil
	return err
}

// initPortAudio sets up the PortAudio library once per process.
func initPortAudio() error {
	return portaudio.Initialize()
}

// termPortAudio releases the library.
func termPortAudio() {
	portaudio.Terminate()
}

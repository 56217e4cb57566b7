package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate AFSK tones, one data bit at a time.
 *
 * Description:	Playback works from a precomputed one-cycle sine
 *		table per tone.  A timer clock advances the table
 *		index and ships each sample to the DAC; the timer
 *		period is ticks = timerBase / (toneFreq * tableLen),
 *		recomputed whenever the active tone changes.
 *
 *		The table index deliberately survives tone changes.
 *		Restarting the cycle on every mark/space transition
 *		would put a step into the waveform and splatter the
 *		transmitted spectrum; carrying the index over keeps
 *		the phase approximately continuous.
 *
 *		Bit timing is drift free: the deadline for bit n is
 *		n * ticksPerBit from the start of the burst, not
 *		"one bit after whenever the previous bit finished".
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
)

type toneGen struct {
	sink SampleSink

	tables [2][]uint8 // indexed by Tone
	period [2]uint32  // ticks per sample, indexed by Tone

	ticksPerBit uint64

	curTone  Tone
	haveTone bool
	index    int    // table position, not reset between tones
	tick     uint64 // elapsed ticks since start()
	deadline uint64 // end of the current bit, in ticks

	bitsSent int
}

/*------------------------------------------------------------------
 *
 * Name:	newToneGen
 *
 * Purpose:	Set up tone generation for one transmit channel.
 *
 * Inputs:	cfg	- Validated modem configuration.
 *
 *		tables	- One table per tone, from generateWaveTable
 *			  or the cache.  Both must have the configured
 *			  power of two length.
 *
 *		sink	- Where samples go.
 *
 *---------------------------------------------------------------*/

func newToneGen(cfg *Config, tables map[Tone][]uint8, sink SampleSink) (*toneGen, error) {
	var tg = &toneGen{
		sink:        sink,
		ticksPerBit: cfg.TimerBase / uint64(cfg.BaudRate),
	}

	for tone, freq := range map[Tone]int{ToneMark: cfg.MarkFreq, ToneSpace: cfg.SpaceFreq} {
		var table = tables[tone]
		if len(table) != cfg.SamplesPerCycle {
			return nil, fmt.Errorf("%v table has %d samples, expected %d", tone, len(table), cfg.SamplesPerCycle)
		}
		tg.tables[tone] = table
		tg.period[tone] = uint32(cfg.TimerBase / uint64(freq*cfg.SamplesPerCycle))
	}

	return tg, nil
}

// start resets the burst clock.  Called once per transmission,
// before the first bit.
func (tg *toneGen) start() {
	tg.tick = 0
	tg.deadline = 0
	tg.haveTone = false
	tg.bitsSent = 0
}

/*------------------------------------------------------------------
 *
 * Name:	PutBit
 *
 * Purpose:	Emit the tone for one NRZI level.
 *
 * Inputs:	b	- Physical bit: 1 selects mark, 0 space.
 *
 * Description:	Samples are written until the running tick count
 *		reaches the bit deadline.  Short bits (when the tone
 *		period does not divide the bit time) borrow from or
 *		repay the next bit, so the error never accumulates.
 *
 *---------------------------------------------------------------*/

func (tg *toneGen) PutBit(b int) error {
	var tone = ToneSpace
	if b != 0 {
		tone = ToneMark
	}

	if !tg.haveTone || tone != tg.curTone {
		tg.curTone = tone
		tg.haveTone = true
		if err := tg.sink.SetSamplePeriod(tg.period[tone]); err != nil {
			return err
		}
	}

	tg.deadline += tg.ticksPerBit
	for tg.tick < tg.deadline {
		if err := tg.sink.WriteSample(tg.tables[tone][tg.index]); err != nil {
			return err
		}
		tg.index = (tg.index + 1) & (len(tg.tables[tone]) - 1)
		tg.tick += uint64(tg.period[tone])
	}

	tg.bitsSent++
	return nil
}

// finish flushes buffered samples, stops the sample clock, and parks
// the DAC at the midpoint.  Must happen before PTT is released.
func (tg *toneGen) finish() error {
	if err := tg.sink.Flush(); err != nil {
		return err
	}
	return tg.sink.Rest(dacMidpoint)
}

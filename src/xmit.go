package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Transmit a frame: key the transmitter, modulate,
 *		unkey.
 *
 * Description:	The transmit side is a small state machine:
 *
 *		IDLE -> PTT_RISING:	assert PTT and the indicator,
 *					wait out the settle delay
 *					while sending preamble flags.
 *		-> TRANSMITTING:	ship the frame bits.
 *		-> PTT_FALLING:		postamble flags, flush, park
 *					the DAC, wait the tail delay.
 *		-> IDLE:		release PTT.
 *
 *		PTT release is deferred so it happens on every exit
 *		path, including a failing sample sink partway through
 *		the burst.
 *
 *		Only one transmission can be active; arbitration
 *		lives in the Modem, which owns the DAC, the timer and
 *		the PTT line as one exclusive resource.
 *
 *---------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

type txState int32

const (
	txIdle txState = iota
	txPTTRising
	txTransmitting
	txPTTFalling
)

func (s txState) String() string {
	switch s {
	case txIdle:
		return "IDLE"
	case txPTTRising:
		return "PTT_RISING"
	case txTransmitting:
		return "TRANSMITTING"
	case txPTTFalling:
		return "PTT_FALLING"
	}
	return "?"
}

type transmitter struct {
	log *log.Logger

	ptt    *pttController
	tg     *toneGen
	sender *hdlcSender

	txDelay        time.Duration
	txTail         time.Duration
	preambleFlags  int
	postambleFlags int

	state atomic.Int32

	// Replaceable for tests; the unit tests run with a no-op so a
	// transmission takes microseconds instead of real settle time.
	sleep func(time.Duration)
}

func newTransmitter(cfg *Config, ptt *pttController, tg *toneGen, logger *log.Logger) *transmitter {
	return &transmitter{
		log:            logger,
		ptt:            ptt,
		tg:             tg,
		sender:         newHDLCSender(tg),
		txDelay:        time.Duration(cfg.TxDelayMS) * time.Millisecond,
		txTail:         time.Duration(cfg.TxTailMS) * time.Millisecond,
		preambleFlags:  cfg.PreambleFlags,
		postambleFlags: cfg.PostambleFlags,
		sleep:          time.Sleep,
	}
}

func (x *transmitter) State() txState {
	return txState(x.state.Load())
}

/*------------------------------------------------------------------
 *
 * Name:	sendFrame
 *
 * Purpose:	Run one complete keyed transmission.
 *
 * Inputs:	payload	- AX.25 frame contents, FCS not included.
 *
 * Returns:	Bits put on the air, flags and stuffing included.
 *
 * Assumption:	The caller holds the transmit lock; this function
 *		is never entered concurrently.
 *
 *---------------------------------------------------------------*/

func (x *transmitter) sendFrame(payload []byte) (totalBits int, err error) {
	x.state.Store(int32(txPTTRising))

	if err = x.ptt.Set(true); err != nil {
		x.state.Store(int32(txIdle))
		return 0, err
	}

	defer func() {
		// PTT must never stay up, whatever happened above.
		if pttErr := x.ptt.Set(false); pttErr != nil && err == nil {
			err = pttErr
		}
		x.state.Store(int32(txIdle))
	}()

	x.sleep(x.txDelay)

	x.state.Store(int32(txTransmitting))
	x.tg.start()

	var n int
	if n, err = x.sender.SendFlags(x.preambleFlags); err != nil {
		return totalBits + n, err
	}
	totalBits += n

	if n, err = x.sender.SendFrame(payload); err != nil {
		return totalBits + n, err
	}
	totalBits += n

	if n, err = x.sender.SendFlags(x.postambleFlags); err != nil {
		return totalBits + n, err
	}
	totalBits += n

	if err = x.tg.finish(); err != nil {
		return totalBits, err
	}

	x.state.Store(int32(txPTTFalling))
	x.sleep(x.txTail)

	x.log.Debug("transmission complete", "bits", totalBits)
	return totalBits, nil
}

package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	The TNC itself: one object owning both directions.
 *
 * Description:	Transmit path:
 *
 *		  KISS frame -> AX.25 bit stuffing and framing ->
 *		  NRZI -> tone table playback -> DAC, with PTT
 *		  bracketing the burst.
 *
 *		Receive path:
 *
 *		  ADC -> Goertzel block decision -> NRZI decode ->
 *		  destuff and flag detect -> FCS check -> KISS out.
 *
 *		The Modem has exclusive ownership of the DAC, the
 *		sample timer and the PTT line.  A transmit request
 *		while another is in flight is refused with
 *		ErrTransmitBusy, never queued.  Receive side problems
 *		are local per-frame conditions: the reassembler resets
 *		and the next frame decodes normally.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrTransmitBusy is returned when a transmission is already
	// in progress.  Requests are refused, not queued.
	ErrTransmitBusy = errors.New("transmit already in progress")

	// ErrInvalidKISSFrame is returned for an empty transmit
	// request or one whose command byte is not a data frame.
	ErrInvalidKISSFrame = errors.New("invalid KISS frame")

	// ErrFrameTooLong is returned when a payload cannot fit the
	// fixed frame buffer.
	ErrFrameTooLong = errors.New("frame exceeds maximum length")
)

type Modem struct {
	cfg Config
	log *log.Logger

	xm    *transmitter
	txMu  sync.Mutex
	demod *goertzelDemod
	rec   *hdlcReceiver
	src   SampleSource

	// Deliver receives validated AX.25 payloads from the receive
	// path.  The slice is only valid for the duration of the call.
	Deliver func(payload []byte)
}

/*------------------------------------------------------------------
 *
 * Name:	NewModem
 *
 * Purpose:	Build the whole pipeline from a validated config.
 *
 * Inputs:	cfg	- Modem parameters, already validated.
 *
 *		sink	- DAC side.
 *
 *		src	- ADC side.  May be nil for a transmit-only
 *			  setup.
 *
 *		ptt	- Keying control from openPTT.
 *
 *		store	- Optional waveform table cache; nil
 *			  regenerates the tables on every start.
 *
 *---------------------------------------------------------------*/

func NewModem(cfg Config, sink SampleSink, src SampleSource, ptt *pttController, store *TableStore, logger *log.Logger) (*Modem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("modem config: %w", err)
	}

	var tables, err = loadOrGenerateTables(&cfg, store, logger)
	if err != nil {
		return nil, err
	}

	tg, err := newToneGen(&cfg, tables, sink)
	if err != nil {
		return nil, err
	}

	var m = &Modem{
		cfg:   cfg,
		log:   logger,
		xm:    newTransmitter(&cfg, ptt, tg, logger.With("dir", "tx")),
		demod: newGoertzelDemod(&cfg),
		src:   src,
	}

	m.rec = newHDLCReceiver(logger.With("dir", "rx"), func(payload []byte) {
		if m.Deliver != nil {
			m.Deliver(payload)
		}
	})

	return m, nil
}

/*------------------------------------------------------------------
 *
 * Name:	Transmit
 *
 * Purpose:	Send one KISS data frame over the air.
 *
 * Inputs:	kissFrame - Command byte followed by the AX.25 frame
 *			  contents.  Only command 0x00 (data frame on
 *			  channel 0) is transmittable.
 *
 * Returns:	nil on success.  ErrInvalidKISSFrame, ErrFrameTooLong
 *		and ErrTransmitBusy tell the caller what went wrong;
 *		no PTT activity happens for a rejected request.
 *
 *---------------------------------------------------------------*/

func (m *Modem) Transmit(kissFrame []byte) error {
	if len(kissFrame) < 2 {
		return fmt.Errorf("%w: too short", ErrInvalidKISSFrame)
	}
	if kissFrame[0] != KISS_CMD_DATA_FRAME {
		return fmt.Errorf("%w: command byte 0x%02x", ErrInvalidKISSFrame, kissFrame[0])
	}

	if !m.txMu.TryLock() {
		return ErrTransmitBusy
	}
	defer m.txMu.Unlock()

	var payload = kissFrame[1:]
	var bits, err = m.xm.sendFrame(payload)
	if err != nil {
		return err
	}

	m.log.Info("transmitted frame", "bytes", len(payload), "bits", bits)
	return nil
}

// HandleKISSFrame dispatches one unframed KISS message from a host
// transport.  Data frames transmit; the timing commands adjust the
// corresponding parameter; everything else is acknowledged by
// ignoring it, which is what a TNC is expected to do.
func (m *Modem) HandleKISSFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}

	// The high nibble addresses a radio channel, with 0xFF as the
	// special "exit KISS mode" byte.  This is a single channel TNC;
	// frames for any other channel are not ours and not an error.
	if ch := frame[0] >> 4; ch != 0 && frame[0] != 0xff {
		m.log.Debug("ignoring KISS frame for another channel", "channel", ch)
		return
	}

	switch frame[0] & 0x0f {
	case KISS_CMD_DATA_FRAME:
		if err := m.Transmit(frame); err != nil {
			m.log.Error("transmit failed", "err", err)
		}

	case KISS_CMD_TXDELAY:
		if len(frame) == 2 {
			// Value is in 10 ms units per the KISS spec.
			m.xm.txDelay = msToDuration(int(frame[1]) * 10)
			m.log.Info("TXDELAY set", "ms", int(frame[1])*10)
		}

	case KISS_CMD_TXTAIL:
		if len(frame) == 2 {
			m.xm.txTail = msToDuration(int(frame[1]) * 10)
			m.log.Info("TXTAIL set", "ms", int(frame[1])*10)
		}

	case KISS_CMD_PERSISTENCE, KISS_CMD_SLOTTIME, KISS_CMD_FULLDUPLEX, KISS_CMD_SET_HARDWARE:
		m.log.Debug("ignoring KISS command", "cmd", frame[0]&0x0f)

	case KISS_CMD_END_KISS:
		// Exit KISS mode.  Ignored, same as the hardware TNCs.

	default:
		m.log.Debug("unknown KISS command", "cmd", frame[0]&0x0f)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	ReceiveLoop
 *
 * Purpose:	Run the demodulator until the context ends or the
 *		sample source dries up.
 *
 * Description:	Strictly sequential: one block, one bit, one call
 *		into the reassembler.  The source's blocking read is
 *		the pacing; there is no buffering between stages and
 *		bits are never reordered.
 *
 *---------------------------------------------------------------*/

func (m *Modem) ReceiveLoop(ctx context.Context) error {
	if m.src == nil {
		return fmt.Errorf("no sample source configured")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var bit, err = m.demod.ProcessBlock(m.src)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read samples: %w", err)
		}

		m.rec.ProcessBit(bit)
	}
}

// RecStats exposes the receive side counters.
func (m *Modem) RecStats() hdlcRecStats {
	return m.rec.Stats()
}

// TxState reports the transmit state machine, mostly for tests and
// status display.
func (m *Modem) TxState() txState {
	return m.xm.State()
}

package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	KISS framing between the host and the TNC.
 *
 * Description:	The KISS TNC protocol is described in
 *		http://www.ka9q.net/papers/kiss.html
 *
 * 		Briefly, a frame is composed of
 *
 *			* FEND (0xC0)
 *			* Contents - with special escape sequences so
 *			  a 0xC0 byte in the data is not taken as end
 *			  of frame.
 *			* FEND
 *
 *		The first content byte is the command: upper nybble
 *		radio channel (always 0 here, single channel), lower
 *		nybble the command code.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

/*
 * Special characters used by SLIP protocol.
 */

const (
	FEND  = 0xC0
	FESC  = 0xDB
	TFEND = 0xDC
	TFESC = 0xDD
)

const (
	KISS_CMD_DATA_FRAME   = 0
	KISS_CMD_TXDELAY      = 1
	KISS_CMD_PERSISTENCE  = 2
	KISS_CMD_SLOTTIME     = 3
	KISS_CMD_TXTAIL       = 4
	KISS_CMD_FULLDUPLEX   = 5
	KISS_CMD_SET_HARDWARE = 6
	KISS_CMD_END_KISS     = 15
)

// Longer than any legal frame so a babbling host fails cleanly.
const maxKISSLen = 2048

/*------------------------------------------------------------------
 *
 * Name:	kissEncapsulate
 *
 * Purpose:	Wrap a received AX.25 payload for the host.
 *
 * Inputs:	payload	- Frame contents, FCS already removed.
 *
 * Returns:	FEND, data frame command byte, escaped payload, FEND.
 *
 *---------------------------------------------------------------*/

func kissEncapsulate(payload []byte) []byte {
	var out = make([]byte, 0, len(payload)+3)
	out = append(out, FEND, KISS_CMD_DATA_FRAME)
	for _, b := range payload {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}
	return append(out, FEND)
}

type kissParserState int

const (
	// Zero value so a parser is usable without initialization.
	kissSearching kissParserState = iota // waiting for FEND
	kissCollecting
)

// kissParser unframes the host byte stream.  Complete frames,
// command byte first and escapes removed, go to the deliver callback.
// The callback must not retain the slice; the buffer is reused.
type kissParser struct {
	deliver func(frame []byte)
	log     *log.Logger

	state   kissParserState
	escaped bool
	buf     []byte
}

func newKISSParser(logger *log.Logger, deliver func(frame []byte)) *kissParser {
	return &kissParser{
		deliver: deliver,
		log:     logger,
	}
}

func (k *kissParser) ProcessByte(b byte) {
	if k.state == kissSearching {
		if b == FEND {
			k.state = kissCollecting
			k.buf = k.buf[:0]
			k.escaped = false
		}
		// Anything else is noise between frames; ignore it.
		return
	}

	if b == FEND {
		if len(k.buf) > 0 {
			k.deliver(k.buf)
		}
		// Stay in collecting: back to back frames share FENDs.
		k.buf = k.buf[:0]
		k.escaped = false
		return
	}

	if k.escaped {
		k.escaped = false
		switch b {
		case TFEND:
			b = FEND
		case TFESC:
			b = FESC
		default:
			// Protocol violation.  Drop the frame and resync.
			k.log.Debug("invalid KISS escape", "byte", b)
			k.state = kissSearching
			return
		}
	} else if b == FESC {
		k.escaped = true
		return
	}

	if len(k.buf) >= maxKISSLen {
		k.log.Debug("KISS frame too long, resyncing")
		k.state = kissSearching
		return
	}

	k.buf = append(k.buf, b)
}

func (k *kissParser) ProcessBytes(data []byte) {
	for _, b := range data {
		k.ProcessByte(b)
	}
}

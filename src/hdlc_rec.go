package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Extract HDLC frames from a stream of demodulated bits.
 *
 * Description:	One bit arrives per Goertzel block decision.  Undo
 *		NRZI, strip the stuffing, watch for flags, and hand
 *		complete frames with a good FCS to the delivery
 *		callback.
 *
 *		All the state lives in the receiver struct and
 *		persists across calls; per-bit decoding is impossible
 *		without that.
 *
 *		Octets are sent low bit first, so the most recent
 *		eight decoded bits are shifted through the pattern
 *		detector from the top.  The flag pattern is matched on
 *		the raw decoded stream, stuffed zeros included: data
 *		can never contain six consecutive ones precisely
 *		because the transmitter stuffs after five, so 01111110
 *		only ever lines up on a real flag.
 *
 *		Seven or more consecutive ones is an abort.  Six would
 *		be wrong: the flag itself carries six, and killing the
 *		frame on the sixth one would destroy every frame just
 *		as its closing flag arrives.
 *
 *		Everything that can go wrong here - abort, bad FCS,
 *		an oversized frame, a frame not a whole number of
 *		octets - resets the reassembly state and bumps a
 *		counter.  None of it is an error to the rest of the
 *		program; the next frame gets a clean start.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

// hdlcRecStats counts per-frame receive conditions for observability.
type hdlcRecStats struct {
	FramesOK  uint64
	BadFCS    uint64
	Aborts    uint64
	Overflows uint64
	NonOctet  uint64 // frame length not a whole number of octets
	TooShort  uint64
}

type hdlcReceiver struct {
	deliver func(payload []byte)
	log     *log.Logger

	nrzi    *nrziDecoder
	ones    int  // consecutive decoded ones
	flagReg byte // last eight decoded bits, newest at the top

	inFrame    bool
	overflowed bool
	frameBuf   [maxFrameLen + 1]byte // extra byte holds closing flag remnant bits
	nbits      int                   // bits accumulated in frameBuf

	stats hdlcRecStats
}

func newHDLCReceiver(logger *log.Logger, deliver func(payload []byte)) *hdlcReceiver {
	return &hdlcReceiver{
		deliver: deliver,
		log:     logger,
		nrzi:    newNRZIDecoder(),
	}
}

func (h *hdlcReceiver) Stats() hdlcRecStats {
	return h.stats
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessBit
 *
 * Purpose:	Process one demodulated bit.
 *
 * Inputs:	raw	- Physical level decided by the demodulator,
 *			  1 for mark, 0 for space.
 *
 *---------------------------------------------------------------*/

func (h *hdlcReceiver) ProcessBit(raw int) {
	var dbit = h.nrzi.Decode(raw)

	h.flagReg >>= 1
	if dbit != 0 {
		h.flagReg |= 0x80
	}

	if h.flagReg == flagByte {
		h.flagFound()
		h.ones = 0
		return
	}

	if dbit != 0 {
		if h.ones < 7 {
			h.ones++
			if h.ones == 7 && h.inFrame {
				// Abort sequence.  Discard and wait for a flag.
				h.log.Debug("abort sequence, discarding frame in progress", "bits", h.nbits)
				h.stats.Aborts++
				h.reset()
			}
		}
		// An idle transmitter sends continuous ones; count the
		// abort once and sit quietly until the next flag.
	} else {
		if h.ones == 5 {
			// Stuffed zero inserted by the transmitter.  Drop it.
			h.ones = 0
			return
		}
		h.ones = 0
	}

	if !h.inFrame {
		return
	}

	// A maximum length frame is followed by the first seven bits of
	// its closing flag, which land in the buffer before the pattern
	// completes and flagFound subtracts them again.  The capacity
	// check must leave room for them.
	if h.nbits >= maxFrameLen*8+7 {
		if !h.overflowed {
			h.log.Debug("oversized frame, dropping bits", "capacity", maxFrameLen)
			h.stats.Overflows++
			h.overflowed = true
		}
		return
	}

	var byteIdx = h.nbits / 8
	var bitIdx = h.nbits % 8
	if bitIdx == 0 {
		h.frameBuf[byteIdx] = 0
	}
	if dbit != 0 {
		h.frameBuf[byteIdx] |= 1 << bitIdx
	}
	h.nbits++
}

// flagFound handles the 01111110 pattern, which both closes the
// current frame (if any) and opens the next.
func (h *hdlcReceiver) flagFound() {
	if h.inFrame && !h.overflowed {
		// The first seven bits of this flag were appended to the
		// buffer before the pattern completed.  They are not data.
		var n = h.nbits - 7

		switch {
		case n <= 0:
			// Back to back flags, nothing in between.
		case n%8 != 0:
			h.stats.NonOctet++
		case n/8 < minFrameLen:
			h.stats.TooShort++
		default:
			var frame = h.frameBuf[:n/8]
			if fcs_check(frame) {
				h.stats.FramesOK++
				h.deliver(frame[:len(frame)-2])
			} else {
				h.log.Debug("FCS mismatch, dropping frame", "len", len(frame))
				h.stats.BadFCS++
			}
		}
	}

	h.reset()
	h.inFrame = true
}

func (h *hdlcReceiver) reset() {
	h.inFrame = false
	h.overflowed = false
	h.nbits = 0
}

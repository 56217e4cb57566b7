package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Convert frames to a stream of bits.
 *
 * Description:	For AX.25, send:
 *			start flag
 *			bit stuffed data
 *			calculated FCS
 *			end flag
 *		NRZI encoding for all of it.  Octets go out low bit
 *		first.  Flags are never stuffed; in the data and FCS a
 *		zero is inserted after every five consecutive ones
 *		even when that falls in the middle of an octet, which
 *		is what keeps the flag pattern from ever appearing in
 *		the payload region.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
)

const flagByte = 0x7e

// Frame buffer bound.  AX.25 payloads are at most a few hundred
// bytes; this matches the reassembly buffer on the receive side.
const maxFrameLen = 330

// Delivered frames must have at least one payload byte plus the FCS.
const minFrameLen = 3

type bitSink interface {
	PutBit(b int) error
}

type hdlcSender struct {
	sink  bitSink
	nrzi  *nrziEncoder
	stuff int // consecutive ones pending a stuffed zero
	nbits int // bits shipped for the current frame, stuffing included
}

func newHDLCSender(sink bitSink) *hdlcSender {
	return &hdlcSender{
		sink: sink,
		nrzi: newNRZIEncoder(),
	}
}

func (s *hdlcSender) sendBit(b int) error {
	s.nbits++
	return s.sink.PutBit(s.nrzi.Encode(b))
}

// sendControl ships an octet with no stuffing.  Only used for flags.
func (s *hdlcSender) sendControl(x byte) error {
	for i := 0; i < 8; i++ {
		if err := s.sendBit(int(x & 1)); err != nil {
			return err
		}
		x >>= 1
	}
	s.stuff = 0
	return nil
}

func (s *hdlcSender) sendData(x byte) error {
	for i := 0; i < 8; i++ {
		var b = int(x & 1)
		if err := s.sendBit(b); err != nil {
			return err
		}
		if b != 0 {
			s.stuff++
			if s.stuff == 5 {
				if err := s.sendBit(0); err != nil {
					return err
				}
				s.stuff = 0
			}
		} else {
			s.stuff = 0
		}
		x >>= 1
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	SendFrame
 *
 * Purpose:	Serialize one AX.25 frame.
 *
 * Inputs:	payload	- Frame contents without FCS.
 *
 * Returns:	Number of bits shipped including flags and stuffing.
 *		Dividing by the bit rate gives the air time.
 *
 *---------------------------------------------------------------*/

func (s *hdlcSender) SendFrame(payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("%w: empty payload", ErrInvalidKISSFrame)
	}
	if len(payload)+2 > maxFrameLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(payload))
	}

	s.nbits = 0

	if err := s.sendControl(flagByte); err != nil {
		return s.nbits, err
	}

	for _, b := range payload {
		if err := s.sendData(b); err != nil {
			return s.nbits, err
		}
	}

	var fcs = fcs_calc(payload)
	if err := s.sendData(byte(fcs)); err != nil {
		return s.nbits, err
	}
	if err := s.sendData(byte(fcs >> 8)); err != nil {
		return s.nbits, err
	}

	if err := s.sendControl(flagByte); err != nil {
		return s.nbits, err
	}

	return s.nbits, nil
}

// SendFlags ships n flag octets.  A keyed transmitter that is not
// sending data should be sending this filler pattern, so it is used
// before and after the frame.
func (s *hdlcSender) SendFlags(n int) (int, error) {
	s.nbits = 0
	for i := 0; i < n; i++ {
		if err := s.sendControl(flagByte); err != nil {
			return s.nbits, err
		}
	}
	return s.nbits, nil
}

/*------------------------------------------------------------------
 *
 * Name:	encodeFrame
 *
 * Purpose:	Produce the stuffed byte form of a frame: flag,
 *		bit-stuffed payload and FCS, flag, with any partial
 *		trailing octet flushed.
 *
 * Description:	Operationally transmission goes through SendFrame,
 *		which feeds the modulator bit by bit.  This buffer
 *		form of the identical bit stream exists for hex dumps
 *		and tests.
 *
 *---------------------------------------------------------------*/

func encodeFrame(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidKISSFrame)
	}
	if len(payload)+2 > maxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(payload))
	}

	var out []byte
	out = append(out, flagByte)

	var acc byte
	var nacc, ones int

	var putBit = func(b int) {
		if b != 0 {
			acc |= 1 << nacc
		}
		nacc++
		if nacc == 8 {
			out = append(out, acc)
			acc, nacc = 0, 0
		}
	}

	var withFCS = make([]byte, 0, len(payload)+2)
	withFCS = append(withFCS, payload...)
	var fcs = fcs_calc(payload)
	withFCS = append(withFCS, byte(fcs), byte(fcs>>8))

	for _, x := range withFCS {
		for i := 0; i < 8; i++ {
			var b = int(x>>i) & 1
			putBit(b)
			if b != 0 {
				ones++
				if ones == 5 {
					putBit(0)
					ones = 0
				}
			} else {
				ones = 0
			}
		}
	}

	if nacc > 0 {
		out = append(out, acc)
	}

	out = append(out, flagByte)
	return out, nil
}

package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	NRZI line coding.
 *
 * Description:	With NRZI a logical 0 is represented by a change in
 *		the transmitted level and a logical 1 by no change.
 *		Both directions carry one bit of state: the encoder
 *		remembers the level currently on the wire, the decoder
 *		remembers the previous level it saw.
 *
 *		Both start with the level high so that an encoder
 *		feeding a decoder reproduces the input exactly from
 *		the very first bit.
 *
 *---------------------------------------------------------------*/

type nrziEncoder struct {
	polarity int
}

func newNRZIEncoder() *nrziEncoder {
	return &nrziEncoder{polarity: 1}
}

// Encode maps one logical bit to the physical level to transmit.
func (e *nrziEncoder) Encode(bit int) int {
	if bit == 0 {
		e.polarity = 1 - e.polarity
	}
	return e.polarity
}

type nrziDecoder struct {
	prev int
}

func newNRZIDecoder() *nrziDecoder {
	return &nrziDecoder{prev: 1}
}

// Decode maps one received physical level back to the logical bit.
// No change since the previous level means 1, a change means 0.
func (d *nrziDecoder) Decode(raw int) int {
	var bit = 0
	if raw == d.prev {
		bit = 1
	}
	d.prev = raw
	return bit
}

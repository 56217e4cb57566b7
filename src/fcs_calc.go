package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Compute the FCS for an AX.25 frame.
 *
 * Description:	The Frame Check Sequence is the CRC-16 used by HDLC
 *		and derivatives: polynomial 0x1021 reflected (0x8408),
 *		initial value 0xFFFF, octets processed low bit first to
 *		match the AX.25 transmission order.  The transmitted FCS
 *		is the one's complement of the register, sent low byte
 *		first.
 *
 *		On receive it is easiest to run the same calculation
 *		over the whole frame including the two FCS octets and
 *		compare against the fixed residue 0xF0B8 that any
 *		undamaged frame produces.
 *
 *---------------------------------------------------------------*/

// Residue of the CRC over payload plus FCS for an error-free frame.
const fcsGoodResidue = 0xf0b8

var fcsTable [256]uint16

func init() {
	for i := range fcsTable {
		var crc = uint16(i)
		for b := 0; b < 8; b++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
		fcsTable[i] = crc
	}
}

func fcsUpdate(crc uint16, b byte) uint16 {
	return (crc >> 8) ^ fcsTable[byte(crc)^b]
}

/*------------------------------------------------------------------
 *
 * Name:	fcs_calc
 *
 * Purpose:	Calculate the FCS to be appended to an outgoing frame.
 *
 * Inputs:	data	- Frame contents, not including the FCS.
 *
 * Returns:	FCS value.  Append low byte first.
 *
 *---------------------------------------------------------------*/

func fcs_calc(data []byte) uint16 {
	var crc uint16 = 0xffff
	for _, b := range data {
		crc = fcsUpdate(crc, b)
	}
	return ^crc
}

/*------------------------------------------------------------------
 *
 * Name:	fcs_check
 *
 * Purpose:	Validate a received frame.
 *
 * Inputs:	frame	- De-stuffed frame contents including the
 *			  two trailing FCS octets.
 *
 * Returns:	True if the residue matches, i.e. the frame arrived
 *		without detectable damage.
 *
 *---------------------------------------------------------------*/

func fcs_check(frame []byte) bool {
	var crc uint16 = 0xffff
	for _, b := range frame {
		crc = fcsUpdate(crc, b)
	}
	return crc == fcsGoodResidue
}

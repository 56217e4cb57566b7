package malamute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// recordBitSink captures the physical bit stream leaving the sender,
// standing in for the tone generator.
type recordBitSink struct {
	bits []int
	fail int // fail the nth call, 0 disables
	n    int
}

func (r *recordBitSink) PutBit(b int) error {
	r.n++
	if r.fail != 0 && r.n >= r.fail {
		return assert.AnError
	}
	r.bits = append(r.bits, b)
	return nil
}

func TestSendFrameBitCount(t *testing.T) {
	var sink = new(recordBitSink)
	var s = newHDLCSender(sink)

	// 0x00 bytes need no stuffing: 8 flag + 3*8 data + 16 FCS-ish
	// region + 8 flag, plus whatever stuffing the FCS itself needs.
	var n, err = s.SendFrame([]byte{0x00, 0x00, 0x00})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, n, 8+24+16+8)
	assert.Equal(t, n, len(sink.bits), "reported count must match bits shipped")
}

func TestSendFrameRejectsEmpty(t *testing.T) {
	var s = newHDLCSender(new(recordBitSink))

	var _, err = s.SendFrame(nil)
	assert.ErrorIs(t, err, ErrInvalidKISSFrame)
}

func TestSendFrameRejectsOversized(t *testing.T) {
	var s = newHDLCSender(new(recordBitSink))

	var _, err = s.SendFrame(make([]byte, maxFrameLen-1))
	assert.ErrorIs(t, err, ErrFrameTooLong)
}

func TestSendFramePropagatesSinkError(t *testing.T) {
	var sink = &recordBitSink{fail: 20}
	var s = newHDLCSender(sink)

	var _, err = s.SendFrame([]byte("Hello"))
	assert.Error(t, err)
}

func TestSendFlagsCount(t *testing.T) {
	var sink = new(recordBitSink)
	var s = newHDLCSender(sink)

	var n, err = s.SendFlags(8)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Len(t, sink.bits, 64)
}

// Test_encodeFrame_Stuffing checks the defining property of the
// stuffed byte stream: outside the flags, the flag pattern can never
// occur, because no run of six ones survives stuffing.
func Test_encodeFrame_Stuffing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var in = rapid.SliceOfN(rapid.Byte(), 1, maxFrameLen-2).Draw(t, "in")

		var out, err = encodeFrame(in)
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(out), 2)
		assert.Equal(t, byte(flagByte), out[0], "missing start flag")
		assert.Equal(t, byte(flagByte), out[len(out)-1], "missing end flag")
		assert.GreaterOrEqual(t, len(out)-2, len(in), "bits were lost in stuffing")

		// Walk the stuffed region bit by bit and count runs of ones.
		var ones = 0
		for _, x := range out[1 : len(out)-1] {
			for i := 0; i < 8; i++ {
				if x>>i&1 != 0 {
					ones++
					assert.Less(t, ones, 6, "six consecutive ones in the stuffed region")
				} else {
					ones = 0
				}
			}
		}
	})
}

// Test_encodeFrame_AllOnes exercises the worst stuffing case: every
// five payload bits of 0xFF grow a stuffed zero.
func Test_encodeFrame_AllOnes(t *testing.T) {
	var in = []byte{0xff, 0xff, 0xff, 0xff, 0xff}

	var out, err = encodeFrame(in)
	require.NoError(t, err)

	// 40 payload bits stuff 8 extra zeros before the FCS region even
	// starts, so the output must be longer than flag+payload+FCS+flag.
	assert.Greater(t, len(out), 1+len(in)+2+1)
}

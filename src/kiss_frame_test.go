package malamute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func collectKISS(t *testing.T) (*kissParser, *[][]byte) {
	t.Helper()
	var frames [][]byte
	return newKISSParser(testLogger(), func(frame []byte) {
		frames = append(frames, append([]byte{}, frame...))
	}), &frames
}

// TestKISSRoundTrip encapsulates arbitrary payloads, including ones
// full of FEND and FESC bytes, and parses them back.
func TestKISSRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var payload = rapid.SliceOfN(rapid.Byte(), 1, 512).Draw(t, "payload")

		var frames [][]byte
		var p = newKISSParser(testLogger(), func(frame []byte) {
			frames = append(frames, append([]byte{}, frame...))
		})

		p.ProcessBytes(kissEncapsulate(payload))

		require.Len(t, frames, 1)
		assert.Equal(t, byte(KISS_CMD_DATA_FRAME), frames[0][0])
		assert.Equal(t, payload, frames[0][1:])
	})
}

func TestKISSEncapsulateEscapes(t *testing.T) {
	var out = kissEncapsulate([]byte{FEND, 'x', FESC})

	assert.Equal(t, []byte{
		FEND, KISS_CMD_DATA_FRAME,
		FESC, TFEND,
		'x',
		FESC, TFESC,
		FEND,
	}, out)
}

func TestKISSParserIgnoresInterFrameNoise(t *testing.T) {
	var p, frames = collectKISS(t)

	p.ProcessBytes([]byte{'g', 'a', 'r', 'b', 'a', 'g', 'e'})
	p.ProcessBytes([]byte{FEND, 0x00, 'H', 'i', FEND})

	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{0x00, 'H', 'i'}, (*frames)[0])
}

func TestKISSParserBackToBackFrames(t *testing.T) {
	var p, frames = collectKISS(t)

	// Consecutive frames share the FEND between them.
	p.ProcessBytes([]byte{FEND, 0x00, 'a', FEND, 0x00, 'b', FEND})

	require.Len(t, *frames, 2)
	assert.Equal(t, []byte{0x00, 'a'}, (*frames)[0])
	assert.Equal(t, []byte{0x00, 'b'}, (*frames)[1])
}

func TestKISSParserEmptyFramesDropped(t *testing.T) {
	var p, frames = collectKISS(t)

	// Idle keep-alive FENDs between frames carry no content.
	p.ProcessBytes([]byte{FEND, FEND, FEND, FEND, 0x00, 'z', FEND})

	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{0x00, 'z'}, (*frames)[0])
}

// TestKISSParserInvalidEscape verifies that a protocol violation
// drops the frame in progress and that the parser resynchronizes on
// the next FEND.
func TestKISSParserInvalidEscape(t *testing.T) {
	var p, frames = collectKISS(t)

	p.ProcessBytes([]byte{FEND, 0x00, 'x', FESC, 'q', 'y', FEND})
	assert.Empty(t, *frames, "violated frame must not be delivered")

	p.ProcessBytes([]byte{FEND, 0x00, 'k', FEND})
	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{0x00, 'k'}, (*frames)[0])
}

func TestKISSParserOverlongFrame(t *testing.T) {
	var p, frames = collectKISS(t)

	p.ProcessByte(FEND)
	for i := 0; i < maxKISSLen+100; i++ {
		p.ProcessByte('A')
	}
	p.ProcessByte(FEND)
	assert.Empty(t, *frames)

	// Still usable afterwards.
	p.ProcessBytes([]byte{FEND, 0x00, 'o', 'k', FEND})
	require.Len(t, *frames, 1)
}

package malamute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWaveTableShape(t *testing.T) {
	var table, err = generateWaveTable(32, 1.0)
	require.NoError(t, err)
	require.Len(t, table, 32)

	// Starts at the midpoint, peaks a quarter cycle in, crosses the
	// midpoint halfway, bottoms out at three quarters.
	assert.Equal(t, uint8(dacMidpoint), table[0])
	assert.Equal(t, uint8(dacMidpoint*2), table[8])
	assert.Equal(t, uint8(dacMidpoint), table[16])
	assert.Equal(t, uint8(0), table[24])
}

func TestGenerateWaveTableAmplitudeScales(t *testing.T) {
	var full, err = generateWaveTable(64, 1.0)
	require.NoError(t, err)
	half, err := generateWaveTable(64, 0.5)
	require.NoError(t, err)

	for i := range full {
		var fullSwing = int(full[i]) - dacMidpoint
		var halfSwing = int(half[i]) - dacMidpoint
		assert.InDeltaf(t, fullSwing, halfSwing*2, 2.0, "sample %d", i)
	}
}

func TestGenerateWaveTableRejectsBadInputs(t *testing.T) {
	for _, n := range []int{0, -4, 3, 12, 33} {
		var _, err = generateWaveTable(n, 0.8)
		assert.Errorf(t, err, "length %d should be rejected", n)
	}

	for _, amp := range []float64{-0.1, 1.01, 100} {
		var _, err = generateWaveTable(32, amp)
		assert.Errorf(t, err, "amplitude %g should be rejected", amp)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 256, 1024} {
		assert.Truef(t, isPowerOfTwo(n), "%d", n)
	}
	for _, n := range []int{0, -1, -2, 3, 6, 100} {
		assert.Falsef(t, isPowerOfTwo(n), "%d", n)
	}
}

package malamute

import (
	"encoding/csv"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLogDisabled(t *testing.T) {
	var fl = newFrameLog("", testLogger())
	defer fl.Close()

	// Must be a no-op, not a crash.
	fl.Write([]byte("nothing to see"))
}

func TestFrameLogWritesCSV(t *testing.T) {
	var dir = t.TempDir()
	var fl = newFrameLog(dir, testLogger())

	var payload = []byte{0x82, 0xA6, 0x40, 'H', 'i'}
	fl.Write(payload)
	fl.Write([]byte("second"))
	fl.Close()

	var entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02")+".log", entries[0].Name())

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	var records, readErr = csv.NewReader(f).ReadAll()
	require.NoError(t, readErr)
	require.Len(t, records, 3) // header plus two frames

	assert.Equal(t, []string{"utime", "isotime", "length", "payload"}, records[0])
	assert.Equal(t, strconv.Itoa(len(payload)), records[1][2])
	assert.Equal(t, hex.EncodeToString(payload), records[1][3])
}

func TestFrameLogAppendsWithoutSecondHeader(t *testing.T) {
	var dir = t.TempDir()

	var fl = newFrameLog(dir, testLogger())
	fl.Write([]byte("one"))
	fl.Close()

	// A new instance on the same day appends to the same file.
	fl = newFrameLog(dir, testLogger())
	fl.Write([]byte("two"))
	fl.Close()

	var entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, openErr := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, openErr)
	defer f.Close()

	var records, readErr = csv.NewReader(f).ReadAll()
	require.NoError(t, readErr)
	assert.Len(t, records, 3) // one header, two frames
}

func TestFrameLogCreatesDirectory(t *testing.T) {
	var dir = filepath.Join(t.TempDir(), "logs")

	var fl = newFrameLog(dir, testLogger())
	defer fl.Close()
	fl.Write([]byte("x"))

	var _, err = os.Stat(dir)
	assert.NoError(t, err)
}

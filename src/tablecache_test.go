package malamute

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *TableStore {
	t.Helper()

	var store, err = OpenTableStore(filepath.Join(t.TempDir(), "tables.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTableStoreMissThenHit(t *testing.T) {
	var store = openTestStore(t)

	var _, found, err = store.Load(ToneMark, 32, 0.8)
	require.NoError(t, err)
	assert.False(t, found)

	table, genErr := generateWaveTable(32, 0.8)
	require.NoError(t, genErr)
	require.NoError(t, store.Store(ToneMark, 32, 0.8, table))

	got, found, err := store.Load(ToneMark, 32, 0.8)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, table, got)
}

func TestTableStoreKeyedByParameters(t *testing.T) {
	var store = openTestStore(t)

	var table, err = generateWaveTable(32, 0.8)
	require.NoError(t, err)
	require.NoError(t, store.Store(ToneMark, 32, 0.8, table))

	// Same tone, different parameters: no hit.
	var _, found, loadErr = store.Load(ToneMark, 64, 0.8)
	require.NoError(t, loadErr)
	assert.False(t, found)

	_, found, loadErr = store.Load(ToneMark, 32, 0.5)
	require.NoError(t, loadErr)
	assert.False(t, found)

	_, found, loadErr = store.Load(ToneSpace, 32, 0.8)
	require.NoError(t, loadErr)
	assert.False(t, found)
}

func TestTableStoreReplaceStaleEntry(t *testing.T) {
	var store = openTestStore(t)

	var old, err = generateWaveTable(32, 0.8)
	require.NoError(t, err)
	require.NoError(t, store.Store(ToneSpace, 32, 0.8, old))

	// Storing again for the same key must replace, not duplicate.
	var changed = append([]uint8{}, old...)
	changed[0] = changed[0] + 1
	require.NoError(t, store.Store(ToneSpace, 32, 0.8, changed))

	var got, found, loadErr = store.Load(ToneSpace, 32, 0.8)
	require.NoError(t, loadErr)
	require.True(t, found)
	assert.Equal(t, changed, got)
}

func TestTableStoreRejectsDamagedEntry(t *testing.T) {
	var store = openTestStore(t)

	// A row whose blob does not match its declared length, or that
	// never finished writing, counts as not found.
	require.NoError(t, store.db.Create(&WaveTableRecord{
		Tone:            ToneMark.String(),
		SamplesPerCycle: 32,
		Amplitude:       0.8,
		Samples:         []byte{1, 2, 3},
		Ready:           true,
	}).Error)

	var _, found, err = store.Load(ToneMark, 32, 0.8)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.db.Create(&WaveTableRecord{
		Tone:            ToneSpace.String(),
		SamplesPerCycle: 32,
		Amplitude:       0.8,
		Samples:         make([]byte, 32),
		Ready:           false,
	}).Error)

	_, found, err = store.Load(ToneSpace, 32, 0.8)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadOrGenerateTablesUsesCache(t *testing.T) {
	var store = openTestStore(t)
	var cfg = DefaultConfig()

	var first, err = loadOrGenerateTables(&cfg, store, testLogger())
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Second run must find both tables cached and identical.
	second, err := loadOrGenerateTables(&cfg, store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, first[ToneMark], second[ToneMark])
	assert.Equal(t, first[ToneSpace], second[ToneSpace])

	var cached, found, loadErr = store.Load(ToneMark, cfg.SamplesPerCycle, cfg.Amplitude)
	require.NoError(t, loadErr)
	require.True(t, found)
	assert.Equal(t, first[ToneMark], cached)
}

func TestLoadOrGenerateTablesWorksWithoutStore(t *testing.T) {
	var cfg = DefaultConfig()

	var tables, err = loadOrGenerateTables(&cfg, nil, testLogger())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Len(t, tables[ToneMark], cfg.SamplesPerCycle)
	assert.Len(t, tables[ToneSpace], cfg.SamplesPerCycle)
}

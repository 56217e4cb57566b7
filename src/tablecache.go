package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Non-volatile cache for the precomputed waveform
 *		tables.
 *
 * Description:	Table generation is cheap on a workstation and not so
 *		cheap on the small boards this is meant to run on, so
 *		the tables can be persisted across restarts.  Rows are
 *		keyed by tone name, table length and amplitude, with a
 *		ready flag; a row that is not ready, or whose blob has
 *		the wrong length, counts as not found and forces
 *		regeneration.
 *
 *		Storage is SQLite through GORM with the pure Go
 *		driver, so there is no C toolchain requirement.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// WaveTableRecord is one cached tone table.
type WaveTableRecord struct {
	ID              uint    `gorm:"primaryKey"`
	Tone            string  `gorm:"index:idx_table_key,unique"`
	SamplesPerCycle int     `gorm:"index:idx_table_key,unique"`
	Amplitude       float64 `gorm:"index:idx_table_key,unique"`
	Samples         []byte
	Ready           bool
}

type TableStore struct {
	db *gorm.DB
}

// OpenTableStore opens (creating if needed) the cache database.
func OpenTableStore(path string) (*TableStore, error) {
	var dialector = sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}

	var db, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open table cache %s: %w", path, err)
	}

	if err := db.AutoMigrate(&WaveTableRecord{}); err != nil {
		return nil, fmt.Errorf("migrate table cache: %w", err)
	}

	return &TableStore{db: db}, nil
}

func (s *TableStore) Close() error {
	var sqlDB, err = s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

/*------------------------------------------------------------------
 *
 * Name:	Load
 *
 * Purpose:	Fetch a cached table.
 *
 * Returns:	(table, true, nil) when a usable entry exists,
 *		(nil, false, nil) when it does not.  Errors are real
 *		database failures only.
 *
 *---------------------------------------------------------------*/

func (s *TableStore) Load(tone Tone, samplesPerCycle int, amplitude float64) ([]uint8, bool, error) {
	var rec WaveTableRecord
	var result = s.db.Where(&WaveTableRecord{
		Tone:            tone.String(),
		SamplesPerCycle: samplesPerCycle,
		Amplitude:       amplitude,
	}).First(&rec)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load %v table: %w", tone, result.Error)
	}

	if !rec.Ready || len(rec.Samples) != samplesPerCycle {
		return nil, false, nil
	}

	return rec.Samples, true, nil
}

// Store saves a freshly generated table, replacing any stale entry
// for the same key.
func (s *TableStore) Store(tone Tone, samplesPerCycle int, amplitude float64, samples []uint8) error {
	var rec = WaveTableRecord{
		Tone:            tone.String(),
		SamplesPerCycle: samplesPerCycle,
		Amplitude:       amplitude,
		Samples:         samples,
		Ready:           true,
	}

	// Upsert on the composite key so a stale blob is overwritten
	// rather than kept.
	var result = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tone"}, {Name: "samples_per_cycle"}, {Name: "amplitude"}},
		DoUpdates: clause.AssignmentColumns([]string{"samples", "ready"}),
	}).Create(&rec)

	if result.Error != nil {
		return fmt.Errorf("store %v table: %w", tone, result.Error)
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	loadOrGenerateTables
 *
 * Purpose:	Produce both tone tables, from the cache when
 *		possible.
 *
 * Description:	Cache trouble is never fatal: generation always
 *		works, so a broken cache just costs the regeneration
 *		and a warning.
 *
 *---------------------------------------------------------------*/

func loadOrGenerateTables(cfg *Config, store *TableStore, logger *log.Logger) (map[Tone][]uint8, error) {
	var tables = make(map[Tone][]uint8, 2)

	for _, tone := range []Tone{ToneMark, ToneSpace} {
		if store != nil {
			var cached, found, err = store.Load(tone, cfg.SamplesPerCycle, cfg.Amplitude)
			if err != nil {
				logger.Warn("table cache load failed, regenerating", "tone", tone, "err", err)
			} else if found {
				tables[tone] = cached
				continue
			}
		}

		var table, err = generateWaveTable(cfg.SamplesPerCycle, cfg.Amplitude)
		if err != nil {
			return nil, err
		}
		tables[tone] = table

		if store != nil {
			if err := store.Store(tone, cfg.SamplesPerCycle, cfg.Amplitude, table); err != nil {
				logger.Warn("table cache store failed", "tone", tone, "err", err)
			}
		}
	}

	return tables, nil
}

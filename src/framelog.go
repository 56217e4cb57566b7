package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Save received frames to a log file.
 *
 * Description:	Rather than saving the raw binary frames, write
 *		separated properties into CSV format for easy reading
 *		and later processing.
 *
 *		Daily file names are generated in the configured
 *		directory, UTC.  The file is kept open between
 *		frames and rolled over when the date changes.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

const frameLogHeader = "utime,isotime,length,payload\n"

type frameLog struct {
	log *log.Logger

	mu    sync.Mutex
	dir   string
	fp    *os.File
	fname string
}

/*------------------------------------------------------------------
 *
 * Function:	newFrameLog
 *
 * Purpose:	Initialization at start of application.
 *
 * Inputs:	dir	- Directory where daily files will be created.
 *			  Use "." for current directory.
 *			  Empty string disables the feature.
 *
 *------------------------------------------------------------------*/

func newFrameLog(dir string, logger *log.Logger) *frameLog {
	var fl = &frameLog{log: logger}

	if len(dir) == 0 {
		return fl
	}

	var stat, statErr = os.Stat(dir)

	if statErr == nil {
		// Exists, but is it a directory?
		if stat.IsDir() {
			fl.dir = dir
		} else {
			logger.Error("Frame log location is not a directory, using \".\" instead", "dir", dir)
			fl.dir = "."
		}
	} else {
		// Doesn't exist.  Try to create it.
		// Parent directory must exist.
		// We don't create multiple levels like "mkdir -p".
		var mkdirErr = os.Mkdir(dir, 0755)
		if mkdirErr == nil {
			logger.Info("Frame log location created", "dir", dir)
			fl.dir = dir
		} else {
			logger.Error("Failed to create frame log location, using \".\" instead", "dir", dir, "err", mkdirErr)
			fl.dir = "."
		}
	}

	return fl
}

/*------------------------------------------------------------------
 *
 * Function:	Write
 *
 * Purpose:	Append one received frame to the log file.
 *
 * Inputs:	payload	- Frame contents after FCS verification,
 *			  FCS removed.
 *
 *------------------------------------------------------------------*/

func (fl *frameLog) Write(payload []byte) {
	if len(fl.dir) == 0 {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	var now = time.Now().UTC()

	// Generate the file name from current date, UTC, and close
	// the current file if the name has changed.

	var fname, ftErr = strftime.Format("%Y-%m-%d.log", now)
	if ftErr != nil {
		fl.log.Error("Frame log name format failed", "err", ftErr)
		return
	}

	if fl.fp != nil && fname != fl.fname {
		fl.closeLocked()
	}

	// Open for append if not already open.

	if fl.fp == nil {
		var fullPath = filepath.Join(fl.dir, fname)

		// See if file already exists.
		// This is used later to write a header if it did not exist already.

		var _, statErr = os.Stat(fullPath)
		var alreadyThere = statErr == nil

		fl.log.Info("Opening frame log file", "file", fname)

		var f, openErr = os.OpenFile(fullPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)

		if openErr != nil {
			fl.log.Error("Can't open frame log file for write", "file", fullPath, "err", openErr)
			fl.fname = ""
			return
		}

		fl.fp = f
		fl.fname = fname

		// Write a header suitable for importing into a spreadsheet
		// only if this will be the first line.

		if !alreadyThere {
			fmt.Fprint(fl.fp, frameLogHeader)
		}
	}

	var w = csv.NewWriter(fl.fp)
	w.Write([]string{
		strconv.Itoa(int(now.Unix())),
		now.Format("2006-01-02T15:04:05Z"),
		strconv.Itoa(len(payload)),
		hex.EncodeToString(payload),
	})
	w.Flush()

	if err := w.Error(); err != nil {
		fl.log.Error("Frame log write error", "err", err)
	}
}

/*------------------------------------------------------------------
 *
 * Function:	Close
 *
 * Purpose:	Close any open log file.
 *		Called when exiting or when the date changes.
 *
 *------------------------------------------------------------------*/

func (fl *frameLog) Close() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.closeLocked()
}

func (fl *frameLog) closeLocked() {
	if fl.fp != nil {
		fl.log.Info("Closing frame log file", "file", fl.fname)
		fl.fp.Close()
		fl.fp = nil
		fl.fname = ""
	}
}

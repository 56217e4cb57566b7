package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Top level wiring of the TNC.
 *
 * Description:	Opens the audio device, the PTT line and the
 *		configured KISS host transports, connects them all to
 *		one Modem, then runs the receive loop until the
 *		context ends.
 *
 *		Everything here is plumbing; the interesting parts
 *		live in the pipeline stages.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Audio frames handed to the host API per callback.
const paBufferFrames = 512

// kissEndpoint is one host-facing transport: serial port, pseudo
// terminal or TCP connection set.
type kissEndpoint interface {
	WriteFrame(payload []byte) error
	Close() error
}

/*------------------------------------------------------------------
 *
 * Name:	Run
 *
 * Purpose:	Run the TNC until the context is cancelled.
 *
 * Inputs:	cfg	- Complete configuration, already validated.
 *
 * Description:	Received frames fan out to every open KISS endpoint
 *		and to the daily frame log.  Frames arriving from any
 *		endpoint go to the modem for transmission.
 *
 *---------------------------------------------------------------*/

func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store *TableStore
	if cfg.TableCache != "" {
		var storeErr error
		store, storeErr = OpenTableStore(cfg.TableCache)
		if storeErr != nil {
			// The cache is an optimization; run without it.
			logger.Warn("table cache unavailable", "path", cfg.TableCache, "err", storeErr)
			store = nil
		} else {
			defer store.Close()
		}
	}

	var ptt, pttErr = openPTT(cfg.PTT, logger)
	if pttErr != nil {
		return fmt.Errorf("open PTT: %w", pttErr)
	}
	defer ptt.Close()

	if err := initPortAudio(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer termPortAudio()

	var sink, sinkErr = openPortAudioSink(cfg.TimerBase, cfg.SampleRate, paBufferFrames)
	if sinkErr != nil {
		return fmt.Errorf("open audio output: %w", sinkErr)
	}
	defer sink.Close()

	var src, srcErr = openPortAudioSource(cfg.SampleRate, cfg.GoertzelBlock())
	if srcErr != nil {
		return fmt.Errorf("open audio input: %w", srcErr)
	}
	defer src.Close()

	var modem, modemErr = NewModem(cfg, sink, src, ptt, store, logger)
	if modemErr != nil {
		return modemErr
	}

	var flog = newFrameLog(cfg.LogDir, logger)
	defer flog.Close()

	var endpoints []kissEndpoint

	if cfg.KISS.SerialDevice != "" {
		var ep, err = openKISSSerial(cfg.KISS.SerialDevice, cfg.KISS.SerialBaud, logger, modem.HandleKISSFrame)
		if err != nil {
			return fmt.Errorf("open KISS serial: %w", err)
		}
		endpoints = append(endpoints, ep)
	}

	if cfg.KISS.PTY {
		var ep, err = openKISSPty(logger, modem.HandleKISSFrame)
		if err != nil {
			return fmt.Errorf("open KISS pty: %w", err)
		}
		endpoints = append(endpoints, ep)
	}

	if cfg.KISS.TCPPort > 0 {
		var ep, err = openKISSNet(cfg.KISS.TCPPort, cfg.KISS.DNSSDName, logger, modem.HandleKISSFrame)
		if err != nil {
			return fmt.Errorf("open KISS TCP: %w", err)
		}
		endpoints = append(endpoints, ep)
	}

	defer func() {
		for _, ep := range endpoints {
			ep.Close()
		}
	}()

	if len(endpoints) == 0 {
		logger.Warn("no KISS endpoints configured, frames will only be logged")
	}

	modem.Deliver = func(payload []byte) {
		logger.Info("received frame", "bytes", len(payload))
		flog.Write(payload)
		for _, ep := range endpoints {
			if err := ep.WriteFrame(payload); err != nil {
				logger.Error("KISS write failed", "err", err)
			}
		}
	}

	logger.Info("modem running",
		"mark", cfg.MarkFreq, "space", cfg.SpaceFreq,
		"baud", cfg.BaudRate, "sample_rate", cfg.SampleRate)

	var err = modem.ReceiveLoop(ctx)
	if err != nil && ctx.Err() != nil {
		// Cancelled shutdown, not a failure.
		return nil
	}
	return err
}

/*------------------------------------------------------------------
 *
 * Name:	Calibrate
 *
 * Purpose:	Transmit calibration tones for audio level adjustment.
 *
 * Inputs:	mode	- 'a' alternating mark/space tones.
 *			  'm' steady mark tone.
 *			  's' steady space tone.
 *			  'p' silence, set PTT only.
 *
 *		seconds	- How long to transmit.
 *
 *---------------------------------------------------------------*/

func Calibrate(ctx context.Context, cfg Config, logger *log.Logger, mode byte, seconds int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var ptt, pttErr = openPTT(cfg.PTT, logger)
	if pttErr != nil {
		return fmt.Errorf("open PTT: %w", pttErr)
	}
	defer ptt.Close()

	if err := initPortAudio(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer termPortAudio()

	var sink, sinkErr = openPortAudioSink(cfg.TimerBase, cfg.SampleRate, paBufferFrames)
	if sinkErr != nil {
		return fmt.Errorf("open audio output: %w", sinkErr)
	}
	defer sink.Close()

	var tables, tablesErr = loadOrGenerateTables(&cfg, nil, logger)
	if tablesErr != nil {
		return tablesErr
	}

	var tg, tgErr = newToneGen(&cfg, tables, sink)
	if tgErr != nil {
		return tgErr
	}

	if err := ptt.Set(true); err != nil {
		return fmt.Errorf("key PTT: %w", err)
	}
	defer ptt.Set(false)

	var n = cfg.BaudRate * seconds

	switch mode {
	case 'a':
		logger.Info("sending alternating mark/space calibration tones",
			"mark", cfg.MarkFreq, "space", cfg.SpaceFreq)
	case 'm':
		logger.Info("sending mark calibration tone", "freq", cfg.MarkFreq)
	case 's':
		logger.Info("sending space calibration tone", "freq", cfg.SpaceFreq)
	case 'p':
		logger.Info("sending silence, PTT only")
	default:
		return fmt.Errorf("invalid calibration mode %q, must be a, m, s or p", string(mode))
	}

	if mode == 'p' {
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(seconds) * time.Second):
		}
		return nil
	}

	tg.start()

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}

		var bit int
		switch mode {
		case 'a':
			bit = i & 1
		case 'm':
			bit = 1
		case 's':
			bit = 0
		}

		if err := tg.PutBit(bit); err != nil {
			return fmt.Errorf("calibration tone: %w", err)
		}
	}

	return tg.finish()
}

package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program for "Malamute", a soundcard AFSK modem
 *		and KISS TNC:
 *
 *			AFSK modulator driven by a variable rate
 *			sample clock.
 *			Goertzel block demodulator.
 *			AX.25/HDLC framing with FCS checking.
 *			KISS protocol over serial port, pseudo
 *			terminal and TCP.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	malamute "github.com/malamute-tnc/malamute/src"
)

func main() {
	var configFileName = pflag.StringP("config-file", "c", "malamute.yaml", "Configuration file name.")
	var enablePseudoTerminal = pflag.BoolP("enable-pty", "p", false, "Create a pseudo terminal for the KISS protocol.")
	var kissSerialDevice = pflag.StringP("kiss-serial", "s", "", "Serial device for the KISS protocol, e.g. /dev/ttyUSB1.")
	var kissTCPPort = pflag.IntP("kiss-tcp-port", "k", 0, "TCP port for the KISS protocol.  0 to disable.")
	var logDir = pflag.StringP("log-dir", "l", "", "Directory name for daily received frame logs.")
	var tableCache = pflag.String("table-cache", "", "SQLite database for caching generated waveform tables.")
	var pttMethod = pflag.String("ptt", "", `PTT method: none, gpiod or serial.  Overrides the configuration file.`)
	var transmitCalibration = pflag.StringP("transmit-calibration", "x", "", `Send transmit level calibration tones for one minute.
a = Alternating mark/space tones.
m = Steady mark tone (e.g. 1200Hz).
s = Steady space tone (e.g. 2200Hz).
p = Silence (Set PTT only).`)
	var logLevel = pflag.String("log-level", "info", "Log level: debug, info, warn or error.")
	var showVersion = pflag.BoolP("version", "v", false, "Print version and exit.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - a software 'soundcard' AFSK modem and KISS TNC.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: malamute [options]\n")
		pflag.PrintDefaults()
	}

	// !!! PARSE !!!
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("Malamute %s\n", malamute.Version())
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	var level, levelErr = log.ParseLevel(*logLevel)
	if levelErr != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q.\n", *logLevel)
		os.Exit(1)
	}
	logger.SetLevel(level)

	/*
	 * Get all configuration settings from the configuration file.
	 * Possibly override some by command line options.
	 */

	var cfg malamute.Config

	if _, statErr := os.Stat(*configFileName); statErr == nil {
		var loadErr error
		cfg, loadErr = malamute.LoadConfig(*configFileName)
		if loadErr != nil {
			logger.Fatal("configuration error", "file", *configFileName, "err", loadErr)
		}
		logger.Info("configuration loaded", "file", *configFileName)
	} else if pflag.CommandLine.Changed("config-file") {
		logger.Fatal("configuration file not found", "file", *configFileName)
	} else {
		cfg = malamute.DefaultConfig()
	}

	if *enablePseudoTerminal {
		cfg.KISS.PTY = true
	}
	if *kissSerialDevice != "" {
		cfg.KISS.SerialDevice = *kissSerialDevice
	}
	if *kissTCPPort != 0 {
		cfg.KISS.TCPPort = *kissTCPPort
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if *tableCache != "" {
		cfg.TableCache = *tableCache
	}
	if *pttMethod != "" {
		cfg.PTT.Method = *pttMethod
	}

	// Done parsing, let's start doing!

	logger.Info("Malamute", "version", malamute.Version())

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *transmitCalibration != "" {
		if len(*transmitCalibration) != 1 {
			logger.Fatal("invalid -x option, must be a, m, s or p", "got", *transmitCalibration)
		}

		var maxDuration = 60
		if err := malamute.Calibrate(ctx, cfg, logger, (*transmitCalibration)[0], maxDuration); err != nil {
			logger.Fatal("calibration failed", "err", err)
		}
		os.Exit(0)
	}

	if err := malamute.Run(ctx, cfg, logger); err != nil {
		logger.Fatal("modem stopped", "err", err)
	}
}

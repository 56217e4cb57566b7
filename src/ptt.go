package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Activate the output control lines for push to talk
 *		(PTT) and the transmit indicator.
 *
 * Description:	Two methods are supported:
 *
 *		gpiod	- a GPIO line through the Linux character
 *			  device, the normal choice on a single board
 *			  computer wired straight to the transceiver.
 *
 *		serial	- the RTS or DTR modem control signal of a
 *			  serial port, the traditional arrangement.
 *
 *		An optional second GPIO line drives an LED so there is
 *		something to look at while transmitting.
 *
 *		Whatever happens during a transmission, the controller
 *		must end with PTT off.  Close de-asserts before
 *		releasing the lines, and the transmit sequencer defers
 *		Set(false) on every path.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

type pttController struct {
	log *log.Logger

	line   outputLine // nil when unused
	led    outputLine
	invert bool

	serial *os.File // nil when unused
	signal int      // unix.TIOCM_RTS or unix.TIOCM_DTR
}

/*------------------------------------------------------------------
 *
 * Name:	openPTT
 *
 * Purpose:	Claim the configured PTT resources.
 *
 * Inputs:	cfg	- PTT section of the configuration.
 *
 * Returns:	Controller with everything de-asserted.  A "none"
 *		method returns a controller that does nothing, which
 *		keeps the callers free of special cases.
 *
 *---------------------------------------------------------------*/

func openPTT(cfg PTTConfig, logger *log.Logger) (*pttController, error) {
	var p = &pttController{
		log:    logger,
		invert: cfg.Invert,
	}

	switch cfg.Method {
	case "", "none":
		return p, nil

	case "gpiod":
		var line, err = gpiocdev.RequestLine(cfg.Chip, cfg.Line, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, fmt.Errorf("request PTT line %s:%d: %w", cfg.Chip, cfg.Line, err)
		}
		p.line = line

		if cfg.HaveLED {
			led, err := gpiocdev.RequestLine(cfg.Chip, cfg.LEDLine, gpiocdev.AsOutput(0))
			if err != nil {
				line.Close()
				return nil, fmt.Errorf("request PTT LED line %s:%d: %w", cfg.Chip, cfg.LEDLine, err)
			}
			p.led = led
		}

	case "serial":
		var f, err = os.OpenFile(cfg.Device, os.O_RDWR|unix.O_NOCTTY, 0)
		if err != nil {
			return nil, fmt.Errorf("open PTT serial device %s: %w", cfg.Device, err)
		}
		p.serial = f

		switch cfg.Signal {
		case "", "rts":
			p.signal = unix.TIOCM_RTS
		case "dtr":
			p.signal = unix.TIOCM_DTR
		default:
			f.Close()
			return nil, fmt.Errorf("unknown PTT serial signal %q", cfg.Signal)
		}

	default:
		return nil, fmt.Errorf("unknown PTT method %q", cfg.Method)
	}

	if err := p.Set(false); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// Set asserts or de-asserts PTT and the indicator.
func (p *pttController) Set(on bool) error {
	var v = 0
	if on != p.invert {
		v = 1
	}

	if p.line != nil {
		if err := p.line.SetValue(v); err != nil {
			return fmt.Errorf("set PTT line: %w", err)
		}
	}

	if p.serial != nil {
		var req = uint(unix.TIOCMBIC)
		if v != 0 {
			req = unix.TIOCMBIS
		}
		var sig = p.signal
		if err := unix.IoctlSetPointerInt(int(p.serial.Fd()), req, sig); err != nil {
			return fmt.Errorf("set PTT modem control: %w", err)
		}
	}

	// The LED follows PTT without inversion; it indicates "keyed",
	// not the electrical level.
	if p.led != nil {
		var lv = 0
		if on {
			lv = 1
		}
		if err := p.led.SetValue(lv); err != nil {
			p.log.Warn("PTT LED update failed", "err", err)
		}
	}

	return nil
}

// Close de-asserts PTT and releases the lines.
func (p *pttController) Close() error {
	var firstErr = p.Set(false)

	if p.line != nil {
		if err := p.line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.line = nil
	}
	if p.led != nil {
		if err := p.led.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.led = nil
	}
	if p.serial != nil {
		if err := p.serial.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.serial = nil
	}

	return firstErr
}

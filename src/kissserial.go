package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	KISS over a serial port or a pseudo terminal.
 *
 * Description:	The classic host link: a serial line (these days
 *		usually a USB adapter or an rfcomm Bluetooth device
 *		node) carrying KISS both ways.
 *
 *		Alternatively a pseudo terminal can be created so an
 *		application on the same machine attaches to the slave
 *		side with no hardware at all.  The slave path is
 *		logged at startup; point the application at it.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/pkg/term"
)

type kissSerial struct {
	log    *log.Logger
	port   io.ReadWriteCloser
	pts    io.Closer // pty slave, held open; nil for real serial
	parser *kissParser
	wmu    sync.Mutex
}

/*------------------------------------------------------------------
 *
 * Name:	openKISSSerial
 *
 * Purpose:	Open a serial device for the KISS host link.
 *
 * Inputs:	device	- e.g. /dev/ttyUSB0 or /dev/rfcomm0.
 *
 *		baud	- Line speed; 0 leaves it alone.
 *
 *		handler	- Receives each unframed KISS message.
 *
 *---------------------------------------------------------------*/

func openKISSSerial(device string, baud int, logger *log.Logger, handler func(frame []byte)) (*kissSerial, error) {
	var port, err = term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := port.SetSpeed(baud); err != nil {
			port.Close()
			return nil, fmt.Errorf("set serial speed %d: %w", baud, err)
		}
	default:
		port.Close()
		return nil, fmt.Errorf("unsupported serial speed %d", baud)
	}

	var s = &kissSerial{
		log:  logger,
		port: port,
	}
	s.parser = newKISSParser(logger, handler)

	go s.readLoop()

	logger.Info("KISS serial port open", "device", device, "baud", baud)
	return s, nil
}

/*------------------------------------------------------------------
 *
 * Name:	openKISSPty
 *
 * Purpose:	Create a pseudo terminal KISS endpoint.
 *
 * Description:	We keep the master side; client applications open the
 *		slave device like any serial port.
 *
 *---------------------------------------------------------------*/

func openKISSPty(logger *log.Logger, handler func(frame []byte)) (*kissSerial, error) {
	var ptmx, pts, err = pty.Open()
	if err != nil {
		return nil, fmt.Errorf("create pseudo terminal: %w", err)
	}

	// The slave stays open on our side as well so the master does
	// not see EOF while no application is attached.
	var s = &kissSerial{
		log:  logger,
		port: ptmx,
		pts:  pts,
	}
	s.parser = newKISSParser(logger, handler)

	go s.readLoop()

	logger.Info("KISS pseudo terminal ready", "device", pts.Name())

	return s, nil
}

func (s *kissSerial) readLoop() {
	var buf [256]byte
	for {
		var n, err = s.port.Read(buf[:])
		if err != nil {
			s.log.Debug("serial read ended", "err", err)
			return
		}
		s.parser.ProcessBytes(buf[:n])
	}
}

// WriteFrame sends one received payload to the host, KISS framed.
func (s *kissSerial) WriteFrame(payload []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var _, err = s.port.Write(kissEncapsulate(payload))
	return err
}

func (s *kissSerial) Close() error {
	var err = s.port.Close()
	if s.pts != nil {
		s.pts.Close()
	}
	return err
}

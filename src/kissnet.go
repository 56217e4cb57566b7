package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	KISS over a TCP socket.
 *
 * Description:	Provide a KISS network service for client
 *		applications, same as the hardware TNCs that grew an
 *		Ethernet port.  Several clients may attach at once;
 *		anything any of them sends goes to the transmitter,
 *		and every received frame is pushed to all of them.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type kissNet struct {
	log          *log.Logger
	listener     net.Listener
	handler      func(frame []byte)
	writeTimeout time.Duration

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

/*------------------------------------------------------------------
 *
 * Name:	openKISSNet
 *
 * Purpose:	Start the KISS TCP listener.
 *
 * Inputs:	port	- TCP port, traditionally 8001.
 *
 *		name	- DNS-SD service name; empty picks a default.
 *
 *		handler	- Receives each unframed KISS message.
 *
 *---------------------------------------------------------------*/

func openKISSNet(port int, name string, logger *log.Logger, handler func(frame []byte)) (*kissNet, error) {
	var listener, err = net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on KISS port %d: %w", port, err)
	}

	var k = &kissNet{
		log:          logger,
		listener:     listener,
		handler:      handler,
		writeTimeout: 5 * time.Second,
		conns:        make(map[net.Conn]struct{}),
	}

	go k.acceptLoop()

	logger.Info("KISS TCP listener ready", "port", port)

	dns_sd_announce(port, name, logger)

	return k, nil
}

func (k *kissNet) acceptLoop() {
	for {
		var conn, err = k.listener.Accept()
		if err != nil {
			k.log.Debug("KISS accept ended", "err", err)
			return
		}

		k.mu.Lock()
		k.conns[conn] = struct{}{}
		k.mu.Unlock()

		k.log.Info("KISS client connected", "remote", conn.RemoteAddr())
		go k.clientLoop(conn)
	}
}

func (k *kissNet) clientLoop(conn net.Conn) {
	defer func() {
		k.mu.Lock()
		delete(k.conns, conn)
		k.mu.Unlock()
		conn.Close()
		k.log.Info("KISS client disconnected", "remote", conn.RemoteAddr())
	}()

	var parser = newKISSParser(k.log, k.handler)
	var buf [256]byte
	for {
		var n, err = conn.Read(buf[:])
		if err != nil {
			return
		}
		parser.ProcessBytes(buf[:n])
	}
}

// WriteFrame pushes one received payload to every attached client.
// The connection set is snapshotted first; the writes happen outside
// the lock, under a deadline, so one stalled client cannot hold up
// the others or the receive loop.  A client that cannot keep up is
// dropped.
func (k *kissNet) WriteFrame(payload []byte) error {
	var data = kissEncapsulate(payload)

	k.mu.Lock()
	var conns = make([]net.Conn, 0, len(k.conns))
	for conn := range k.conns {
		conns = append(conns, conn)
	}
	k.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(k.writeTimeout))
		if _, err := conn.Write(data); err != nil {
			k.log.Info("dropping stalled KISS client", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
		}
	}
	return nil
}

func (k *kissNet) Close() error {
	var err = k.listener.Close()

	k.mu.Lock()
	defer k.mu.Unlock()
	for conn := range k.conns {
		conn.Close()
	}
	k.conns = map[net.Conn]struct{}{}

	return err
}

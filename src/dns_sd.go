package malamute

/*------------------------------------------------------------------
 *
 * Purpose:   	Announce the KISS over TCP service using DNS-SD.
 *
 * Description:	Client applications on the local network can then
 *		discover the TNC instead of typing in an address and
 *		port.  Uses the pure Go dnssd package, so no system
 *		daemon or C library is involved.
 *
 *		Announcement is best effort; failure is logged and
 *		the listener works regardless.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"os"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

const dnssdServiceType = "_kiss-tnc._tcp"

func dns_sd_announce(port int, name string, logger *log.Logger) {
	if name == "" {
		var host, _ = os.Hostname()
		if host == "" {
			host = "malamute"
		}
		name = "Malamute TNC on " + host
	}

	var cfg = dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: dnssdServiceType,
		Port: port,
	}

	var sv, svErr = dnssd.NewService(cfg)
	if svErr != nil {
		logger.Warn("DNS-SD service create failed", "err", svErr)
		return
	}

	var rp, rpErr = dnssd.NewResponder()
	if rpErr != nil {
		logger.Warn("DNS-SD responder create failed", "err", rpErr)
		return
	}

	if _, err := rp.Add(sv); err != nil {
		logger.Warn("DNS-SD service add failed", "err", err)
		return
	}

	logger.Info("DNS-SD announcing KISS TCP", "port", port, "name", name)

	go func() {
		if err := rp.Respond(context.Background()); err != nil {
			logger.Warn("DNS-SD responder stopped", "err", err)
		}
	}()
}

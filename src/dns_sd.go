package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Announce the control server using DNS-SD.
 *
 * Description:
 *
 *     Most people have typed in enough IP addresses and ports by now,
 *     and would rather just select a lighting bridge that is
 *     automatically discovered on the local network.
 *
 *     This uses the pure-Go github.com/brutella/dnssd package for
 *     cross-platform mDNS/DNS-SD service announcement without
 *     requiring any system daemon or C library dependencies.
 */

import (
	"context"
	"os"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

const dnsSdService = "_dalmatian._tcp"

func dnsSdDefaultServiceName() string {
	var host, err = os.Hostname()
	if err != nil || host == "" {
		return "dalmatian"
	}
	return "dalmatian on " + host
}

func announceControlServer(logger *log.Logger, port int) {
	var cfg = dnssd.Config{ //nolint:exhaustruct
		Name: dnsSdDefaultServiceName(),
		Type: dnsSdService,
		Port: port,
	}

	var sv, svErr = dnssd.NewService(cfg)
	if svErr != nil {
		logger.Error("DNS-SD: failed to create service", "err", svErr)
		return
	}

	var rp, rpErr = dnssd.NewResponder()
	if rpErr != nil {
		logger.Error("DNS-SD: failed to create responder", "err", rpErr)
		return
	}

	var _, addErr = rp.Add(sv)
	if addErr != nil {
		logger.Error("DNS-SD: failed to add service", "err", addErr)
		return
	}

	logger.Info("DNS-SD: announcing control server", "service", dnsSdService, "port", port)

	go func() {
		if err := rp.Respond(context.Background()); err != nil {
			logger.Error("DNS-SD: responder error", "err", err)
		}
	}()
}

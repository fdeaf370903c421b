package ec2

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
)

var tcpDialer = &net.Dialer{Timeout: 3 * time.Second}

// tcpPortOpen performs a single connect-and-close reachability check.
func tcpPortOpen(ctx context.Context, host string, port int32) bool {
	target := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := tcpDialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// waitTCP polls until the TCP port on 'host' accepts connections or the
// context expires.
func waitTCP(ctx context.Context, host string, port int32) error {
	log := clog.FromContext(ctx).With("host", host, "port", port)
	log.Debug("waiting for TCP port to open")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if tcpPortOpen(ctx, host, port) {
				log.Debug("TCP port is open")
				return nil
			}
		}
	}
}

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// getListener listens at a TCP address, or at a UNIX socket if the address
// is prefixed with "unix:".
func getListener(
	ctx context.Context,
	addr string,
) (net.Listener, error) {
	network := "tcp"
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, addr = "unix", path
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf(ctx, "unable to remove the stale socket '%s': %v", path, err)
		}
	}
	listener, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("unable to listen at %s '%s': %w", network, addr, err)
	}
	return listener, nil
}

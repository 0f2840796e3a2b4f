package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ResolveAddr returns the host:port string to dial.  With noDNS set the
// host must already be an IP literal (brackets allowed); names are
// refused rather than looked up.
func ResolveAddr(host string, port int, noDNS bool) (string, error) {
	if noDNS && net.ParseIP(strings.Trim(host, "[]")) == nil {
		return "", fmt.Errorf("%q is not an IP address and DNS is disabled (-n)", host)
	}
	return FormatAddr(strings.Trim(host, "[]"), port), nil
}

// FormatAddr joins host and port, bracketing IPv6 literals.
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// FindFreePort asks the kernel for an unused loopback TCP port.  The
// port is released before returning, so tests use it to get an
// address that refuses connections.
func FindFreePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	return port, ln.Close()
}

package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// SOCKSDialer reaches the server through a SOCKS5 proxy.  The proxy
// resolves the target host, so names work even when the client has
// no route to the server's DNS.
type SOCKSDialer struct {
	ProxyAddr string // host:port of the proxy
	Auth      string // optional "user:password"
	Timeout   time.Duration
}

// Dial connects to address via the proxy.
func (d *SOCKSDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var auth *proxy.Auth
	if d.Auth != "" {
		user, pass, _ := strings.Cut(d.Auth, ":")
		auth = &proxy.Auth{User: user, Password: pass}
	}

	forward := &net.Dialer{Timeout: d.Timeout}
	pd, err := proxy.SOCKS5("tcp", d.ProxyAddr, auth, forward)
	if err != nil {
		return nil, fmt.Errorf("socks5 %s: %w", d.ProxyAddr, err)
	}
	cd, ok := pd.(proxy.ContextDialer)
	if !ok {
		return pd.Dial(network, address)
	}
	return cd.DialContext(ctx, network, address)
}

// Close is a no-op; every Dial opens its own proxy connection.
func (d *SOCKSDialer) Close() error { return nil }

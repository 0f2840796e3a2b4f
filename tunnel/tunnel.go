// Package tunnel carries the client's single connection through an SSH
// gateway, for peers that are only reachable from the gateway's side.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which a TCP connection
// can be forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}

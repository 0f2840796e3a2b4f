// Package transport provides abstractions for connection
// establishment.  Transports handle how the client reaches its peer,
// directly over TCP or through an SSH gateway, independent of what is
// exchanged once connected (the capability layer's job).
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

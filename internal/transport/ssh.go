package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"tcphello/tunnel"
	"tcphello/util"
)

// SSHDialer routes the client connection through an SSH gateway.  The
// gateway session is opened lazily on the first Dial and reopened on a
// later Dial if it has dropped, so connect retries also cover the
// gateway hop.
type SSHDialer struct {
	tun    tunnel.Tunnel
	label  string
	logger *util.Logger

	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards through the gateway in cfg.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return newSSHDialer(tunnel.NewSSHTunnel(cfg, logger),
		fmt.Sprintf("%s@%s:%d", cfg.User, cfg.Host, cfg.Port), logger)
}

func newSSHDialer(tun tunnel.Tunnel, label string, logger *util.Logger) *SSHDialer {
	return &SSHDialer{tun: tun, label: label, logger: logger}
}

func (d *SSHDialer) ensure(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.tun.IsAlive() {
		return nil
	}

	d.logger.Verbose("opening SSH gateway %s", d.label)
	if err := d.tun.Connect(ctx); err != nil {
		return fmt.Errorf("gateway %s: %w", d.label, err)
	}
	d.connected = true
	d.logger.Verbose("SSH gateway %s ready", d.label)
	return nil
}

// Dial opens address from the gateway's side of the tunnel.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.ensure(ctx); err != nil {
		return nil, err
	}
	return d.tun.Dial(ctx, network, address)
}

// Close tears down the gateway session if one was opened.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false
	return d.tun.Close()
}

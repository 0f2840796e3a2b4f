package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"tcphello/config"
	ncerr "tcphello/internal/errors"
	"tcphello/util"
)

// SSHConfig describes the gateway and how to authenticate to it.
type SSHConfig struct {
	User          string
	Host          string
	Port          int // default config.DefaultSSHPort
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration // TCP connect and handshake, default config.DefaultConnTimeout
}

func (c *SSHConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SSHTunnel implements [Tunnel] over one SSH client connection.  Each
// Dial opens a direct-tcpip channel, so the target is reached from
// the gateway's network.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// NewSSHTunnel fills defaults into cfg and returns an unconnected tunnel.
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = config.DefaultSSHPort
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = config.DefaultConnTimeout
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

func (t *SSHTunnel) wrap(op string, err error) error {
	return ncerr.WrapSSH(op, t.config.Host, t.config.Port, err)
}

// Connect dials the gateway and authenticates.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	auth, err := BuildAuthMethods(t.config)
	if err != nil {
		return t.wrap("auth", err)
	}
	hostKey, err := hostKeyCallback(t.config)
	if err != nil {
		return t.wrap("hostkey", err)
	}

	addr := t.config.addr()
	t.logger.Debug("ssh: dialing %s as %q", addr, t.config.User)

	d := net.Dialer{Timeout: t.config.ConnTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return t.wrap("dial", err)
	}

	client, err := handshake(ctx, raw, addr, &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         t.config.ConnTimeout,
	})
	if err != nil {
		raw.Close()
		return t.wrap("handshake", err)
	}

	t.mu.Lock()
	t.client, t.alive = client, true
	t.mu.Unlock()

	go t.watch(client)
	return nil
}

// handshake runs the SSH handshake on raw, aborting it by closing the
// socket if ctx ends first.
func handshake(ctx context.Context, raw net.Conn, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	stop := util.CloseOnDone(ctx, raw)
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, cfg)
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return ssh.NewClient(conn, chans, reqs), nil
}

// Dial opens address from the gateway.  ssh.Client.Dial is not
// context-aware, so a cancelled ctx abandons the dial and closes the
// channel if it completes later.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client, alive := t.client, t.alive
	t.mu.RUnlock()
	if !alive || client == nil {
		return nil, ncerr.ErrNotConnected
	}

	t.logger.Debug("ssh: opening %s %s via %s", network, address, t.config.addr())

	type dialed struct {
		conn net.Conn
		err  error
	}
	done := make(chan dialed, 1)
	go func() {
		c, err := client.Dial(network, address)
		done <- dialed{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("gateway dial %s: %w", address, r.err)
		}
		return r.conn, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Close ends the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// IsAlive reports whether the SSH connection is still up.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// watch marks the tunnel dead once client's connection ends.
func (t *SSHTunnel) watch(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client || t.client == nil {
		t.alive = false
	}
	t.mu.Unlock()

	t.logger.Debug("ssh: connection to %s closed: %v", t.config.addr(), err)
}

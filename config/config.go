// Package config defines the runtime configuration for tcphello and
// loads it from defaults, an INI file, the environment, and flags.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	ncerr "tcphello/internal/errors"
)

// Config holds every tuneable for a single tcphello run.
type Config struct {
	// ── Client ───────────────────────────────────────────────────────
	Host       string
	Port       int
	Message    string
	BufferSize int           // upper bound for the single reply read
	Timeout    time.Duration // dial + I/O deadline, 0 = block forever
	Retries    int           // connect attempts
	RetryDelay time.Duration
	NoDNS      bool
	ProxyAddr  string // SOCKS5 proxy host:port, empty = direct
	ProxyAuth  string // user:password for the proxy

	// ── Tracking server ──────────────────────────────────────────────
	Listen      bool
	ListenHost  string
	KeepOpen    bool
	LogDir      string
	IdleTimeout time.Duration

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose   int
	LogFormat string
	Summarize string // path of a stored log to summarise instead of connecting
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		Message:     DefaultMessage,
		BufferSize:  DefaultBufferSize,
		Retries:     DefaultRetries,
		RetryDelay:  DefaultRetryDelay,
		ListenHost:  DefaultListenHost,
		LogDir:      DefaultLogDir,
		IdleTimeout: DefaultIdleTimeout,
		Verbose:     1,
		LogFormat:   "console",
	}
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort parses a single TCP port in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec (if set) into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ncerr.ConfigError{
			Field: "port", Value: c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the tracking server listens on %d by default", DefaultPort),
		}
	}

	if c.Summarize != "" && c.Listen {
		return &ncerr.ConfigError{Field: "summarize", Message: "cannot be combined with -l"}
	}

	if c.Listen {
		if c.LogDir == "" {
			return &ncerr.ConfigError{Field: "log-dir", Message: "must not be empty"}
		}
		if c.IdleTimeout <= 0 {
			return &ncerr.ConfigError{Field: "idle-timeout", Value: c.IdleTimeout, Message: "must be positive"}
		}
		if c.TunnelEnabled {
			return &ncerr.ConfigError{
				Field:   "tunnel",
				Message: "listen mode through an SSH tunnel is not supported",
			}
		}
		return nil
	}

	if c.Host == "" {
		return &ncerr.ConfigError{Field: "host", Message: "must not be empty"}
	}
	if c.Message == "" {
		return &ncerr.ConfigError{
			Field:   "message",
			Message: "must not be empty",
			Hint:    "an empty write cannot be told apart from no write at all",
		}
	}
	if c.BufferSize < 1 || c.BufferSize > MaxBufferSize {
		return &ncerr.ConfigError{
			Field: "buffer-size", Value: c.BufferSize,
			Message: fmt.Sprintf("out of range 1-%d", MaxBufferSize),
		}
	}
	if c.Retries < 1 {
		return &ncerr.ConfigError{
			Field: "retries", Value: c.Retries,
			Message: "must be at least 1",
			Hint:    "--retries counts connect attempts, including the first",
		}
	}
	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.ProxyAddr != "" {
		if c.TunnelEnabled {
			return &ncerr.ConfigError{Field: "proxy", Message: "cannot be combined with --tunnel"}
		}
		if _, _, err := net.SplitHostPort(c.ProxyAddr); err != nil {
			return &ncerr.ConfigError{
				Field: "proxy", Value: c.ProxyAddr,
				Message: "expected host:port",
			}
		}
	}
	if c.TunnelEnabled {
		if c.TunnelHost == "" {
			return &ncerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
		}
		if c.NoDNS {
			return &ncerr.ConfigError{
				Field:   "no-dns",
				Message: "cannot be combined with --tunnel",
				Hint:    "names are resolved by the SSH gateway",
			}
		}
	}
	return nil
}

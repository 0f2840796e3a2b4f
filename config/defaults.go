package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the INI file, and environment variable loading.

const (
	// DefaultHost is the peer a bare invocation connects to.
	DefaultHost = "127.0.0.1"

	// DefaultListenHost is the bind address for the tracking server.
	DefaultListenHost = "0.0.0.0"

	// DefaultPort is used by both the client and the tracking server.
	DefaultPort = 8080

	// DefaultMessage is sent verbatim: no terminator, no length prefix.
	DefaultMessage = "Hello from C client!"

	// DefaultBufferSize caps the single read of the reply.
	DefaultBufferSize = 1024

	// MaxBufferSize bounds --buffer-size.
	MaxBufferSize = 64 * 1024

	// DefaultRetries is the number of connect attempts.  One attempt
	// matches a plain connect.
	DefaultRetries = 1

	// DefaultRetryDelay is the wait before the second connect attempt.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultLogDir is where the tracking server appends reports.
	DefaultLogDir = "gps_logs"

	// DefaultIdleTimeout is how long the server waits on a silent
	// connection before re-arming the read deadline.
	DefaultIdleTimeout = 10 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds the SSH gateway connect and handshake
	// when no -w timeout is given.
	DefaultConnTimeout = 30 * time.Second
)

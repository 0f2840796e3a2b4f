// Package errors holds the error types tcphello reports.
//
// A ConnectionError means the peer never answered; an IoError means it
// answered and the exchange then failed.  The CLI prints both the same
// way, but retries only the former.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var (
	ErrEmptyReply   = errors.New("peer closed the connection without replying")
	ErrShortWrite   = io.ErrShortWrite
	ErrNotConnected = errors.New("not connected")
	ErrAuthFailed   = errors.New("authentication failed")
)

// ConnectionError reports that no connection to Addr was established.
// Retryable only steers the connect loop and is not part of the message.
type ConnectionError struct {
	Addr      string
	Err       error
	Retryable bool
}

// Connect wraps a dial failure, deciding from err whether another
// attempt could succeed.
func Connect(addr string, err error) *ConnectionError {
	return &ConnectionError{Addr: addr, Err: err, Retryable: transient(err)}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IoError reports a send or receive failure on an open connection.
// Short writes and empty replies count as failures.
type IoError struct {
	Op   string // "write" or "read"
	Addr string
	Err  error
}

// Write wraps a send failure.
func Write(addr string, err error) *IoError { return &IoError{Op: "write", Addr: addr, Err: err} }

// Read wraps a receive failure.
func Read(addr string, err error) *IoError { return &IoError{Op: "read", Addr: addr, Err: err} }

func (e *IoError) Error() string { return e.Op + " " + e.Addr + ": " + e.Err.Error() }

func (e *IoError) Unwrap() error { return e.Err }

// SSHError is a gateway failure.  Op is one of "auth", "hostkey",
// "dial" or "handshake".
type SSHError struct {
	Op   string
	Host string
	Port int
	Err  error
}

func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError names the flag whose value was rejected.
type ConfigError struct {
	Field   string      // flag name, no dashes
	Value   interface{} // nil when the value is missing
	Message string
	Hint    string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config: --")
	b.WriteString(e.Field)
	if e.Value != nil {
		fmt.Fprintf(&b, "=%v", e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return transient(err)
}

// IsConnection reports whether err wraps a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsIO reports whether err wraps an IoError.
func IsIO(err error) bool {
	var ie *IoError
	return errors.As(err, &ie)
}

// transient treats every failed dial as retryable, since a refusing
// server may simply not be listening yet.
func transient(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	switch {
	case err == nil:
		return false
	case errors.As(err, &opErr):
		return opErr.Op == "dial" || opErr.Temporary() //nolint:staticcheck
	case errors.As(err, &dnsErr):
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

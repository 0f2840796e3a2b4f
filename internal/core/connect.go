package core

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"tcphello/internal/capability"
	ncerr "tcphello/internal/errors"
	"tcphello/internal/metrics"
	"tcphello/internal/retry"
	"tcphello/internal/session"
	"tcphello/internal/transport"
	"tcphello/util"
)

// ExchangeMode dials the server once per attempt until connected, then
// runs the capability on the connection exactly once.  Only the dial
// is retried.
type ExchangeMode struct {
	Dialer     transport.Dialer
	Backoff    *retry.Backoff
	Capability capability.Capability
	Address    string
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *ExchangeMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run connects, hands the session to the capability, and closes the
// connection and transport on every path.
func (m *ExchangeMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	backoff := m.Backoff
	if backoff == nil {
		backoff = retry.ForConnect(1, 0)
	}
	if backoff.OnRetry == nil {
		backoff.OnRetry = func(attempt int, err error, wait time.Duration) {
			m.Logger.Warn("attempt %d failed: %v (retrying in %s)", attempt, err, wait.Round(time.Millisecond))
		}
	}

	m.Logger.Verbose("connecting to %s", m.Address)

	var conn net.Conn
	err := backoff.Do(ctx, func(attempt int) error {
		c, err := m.Dialer.Dial(ctx, "tcp", m.Address)
		if err != nil {
			cerr := ncerr.Connect(m.Address, err)
			if !cerr.Retryable || ctx.Err() != nil {
				return retry.Permanent(cerr)
			}
			return cerr
		}
		conn = c
		return nil
	})
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return err
	}

	conn = metrics.Count(conn, m.Metrics)
	m.Metrics.ConnectionOpened()
	defer m.Metrics.ConnectionClosed()
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, m.Address, m.stdout(), m.Logger, m.Metrics)
	return m.Capability.Handle(ctx, sess)
}

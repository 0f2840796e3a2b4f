package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"tcphello/internal/capability"
	"tcphello/internal/metrics"
	"tcphello/internal/session"
	"tcphello/util"
)

// ServeMode accepts inbound connections and runs a capability on
// each one until ctx is cancelled.  Connections are served one after
// another; with KeepOpen=true each gets its own goroutine instead, and
// shutdown waits for them.
type ServeMode struct {
	Address    string // "host:port"
	KeepOpen   bool
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// OnListen, if set, is called with the bound address once the
	// listener is up.
	OnListen func(net.Addr)

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer

	wg sync.WaitGroup
}

func (m *ServeMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run starts listening and dispatches accepted connections to the
// capability until ctx is cancelled.
func (m *ServeMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	stop := util.CloseOnDone(ctx, ln)
	defer func() {
		stop()
		ln.Close()
		m.wg.Wait()
		m.Logger.Debug("server stats: %s", m.Metrics.JSON())
	}()

	m.Logger.Info("listening on %s", ln.Addr())
	if m.OnListen != nil {
		m.OnListen(ln.Addr())
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		m.Logger.Info("connection from %s", conn.RemoteAddr())

		if !m.KeepOpen {
			m.serve(ctx, conn)
			continue
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.serve(ctx, conn)
		}()
	}
}

func (m *ServeMode) serve(ctx context.Context, conn net.Conn) {
	peer := conn.RemoteAddr().String()
	if err := m.serveConn(ctx, conn); err != nil {
		m.Logger.Warn("%s: %v", peer, err)
	}
}

func (m *ServeMode) serveConn(ctx context.Context, conn net.Conn) error {
	peer := conn.RemoteAddr().String()
	conn = metrics.Count(conn, m.Metrics)
	m.Metrics.ConnectionOpened()
	defer m.Metrics.ConnectionClosed()
	defer conn.Close()

	sess := session.New(conn, peer, m.stdout(), m.Logger, m.Metrics)
	err := m.Capability.Handle(ctx, sess)
	if err != nil {
		m.Metrics.RecordError(err.Error())
	}
	m.Logger.Debug("%s closed", peer)
	return err
}

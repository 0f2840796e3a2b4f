package core

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tcphello/internal/capability"
	ncerr "tcphello/internal/errors"
	"tcphello/internal/metrics"
	"tcphello/internal/retry"
	"tcphello/internal/transport"
	"tcphello/util"
)

// countingConn counts Read and Write calls on the client side.
type countingConn struct {
	net.Conn
	reads, writes *int32
}

func (c *countingConn) Read(b []byte) (int, error) {
	atomic.AddInt32(c.reads, 1)
	return c.Conn.Read(b)
}

func (c *countingConn) Write(b []byte) (int, error) {
	atomic.AddInt32(c.writes, 1)
	return c.Conn.Write(b)
}

type countingDialer struct {
	transport.TCPDialer
	dials, reads, writes int32
}

func (d *countingDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	atomic.AddInt32(&d.dials, 1)
	c, err := d.TCPDialer.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &countingConn{Conn: c, reads: &d.reads, writes: &d.writes}, nil
}

// echoOnce accepts one connection, echoes a single read, and closes.
func echoOnce(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		conn.Write(buf[:n]) //nolint:errcheck
	}()
	return ln.Addr().String()
}

func newExchangeMode(addr string, d transport.Dialer, out *bytes.Buffer) *ExchangeMode {
	return &ExchangeMode{
		Dialer:     d,
		Capability: &capability.Exchange{Message: "Hello from C client!", BufferSize: 1024},
		Address:    addr,
		Logger:     util.NewLogger(0),
		Metrics:    metrics.New(),
		Stdout:     out,
	}
}

// TestExchangeMode_Echo runs the full client against a loopback echo
// server and checks the output and the call counts.
func TestExchangeMode_Echo(t *testing.T) {
	addr := echoOnce(t)
	d := &countingDialer{}
	out := &bytes.Buffer{}
	m := newExchangeMode(addr, d, out)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "Подключено к серверу!\nОтправлено: Hello from C client!\nОтвет сервера: Hello from C client!\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if d.dials != 1 || d.writes != 1 || d.reads != 1 {
		t.Errorf("dials=%d writes=%d reads=%d, want 1/1/1", d.dials, d.writes, d.reads)
	}

	s := m.Metrics.Snapshot()
	if s.BytesOut != 20 || s.BytesIn != 20 {
		t.Errorf("bytes out=%d in=%d, want 20/20", s.BytesOut, s.BytesIn)
	}
	if s.ConnectionsActive != 0 || s.ConnectionsTotal != 1 {
		t.Errorf("connections active=%d total=%d", s.ConnectionsActive, s.ConnectionsTotal)
	}
}

// TestExchangeMode_NoListener verifies a refused connect surfaces as a
// ConnectionError and prints nothing.
func TestExchangeMode_NoListener(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	m := newExchangeMode(util.FormatAddr("127.0.0.1", port), &transport.TCPDialer{}, out)

	err = m.Run(context.Background())
	var ce *ncerr.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

// TestExchangeMode_RetriesConnect verifies the dial is retried up to
// the attempt budget.
func TestExchangeMode_RetriesConnect(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	d := &countingDialer{}
	m := newExchangeMode(util.FormatAddr("127.0.0.1", port), d, &bytes.Buffer{})
	m.Backoff = retry.ForConnect(3, time.Millisecond)

	err = m.Run(context.Background())
	if !ncerr.IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !strings.Contains(err.Error(), "giving up after 3 attempts") {
		t.Errorf("error = %v", err)
	}
	if d.dials != 3 {
		t.Errorf("dials = %d, want 3", d.dials)
	}
}

// TestExchangeMode_PeerCloses verifies that a server closing without a
// reply yields an IoError for the read.
func TestExchangeMode_PeerCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 64)
		conn.Read(buf) //nolint:errcheck
		conn.Close()
	}()

	out := &bytes.Buffer{}
	m := newExchangeMode(ln.Addr().String(), &transport.TCPDialer{}, out)

	err = m.Run(context.Background())
	var ioe *ncerr.IoError
	if !errors.As(err, &ioe) || ioe.Op != "read" {
		t.Fatalf("expected read IoError, got %v", err)
	}
	if !strings.Contains(out.String(), "Отправлено: Hello from C client!\n") {
		t.Errorf("output = %q", out.String())
	}
}

package core

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"tcphello/internal/capability"
	"tcphello/internal/metrics"
	"tcphello/internal/tracking"
	"tcphello/internal/transport"
	"tcphello/util"
)

// startServe runs a ServeMode on an ephemeral loopback port and
// returns its address and result channel.
func startServe(t *testing.T, ctx context.Context, mode *ServeMode) (string, <-chan error) {
	t.Helper()
	ready := make(chan net.Addr, 1)
	mode.Address = "127.0.0.1:0"
	mode.OnListen = func(a net.Addr) { ready <- a }

	errc := make(chan error, 1)
	go func() { errc <- mode.Run(ctx) }()

	select {
	case a := <-ready:
		return a.String(), errc
	case err := <-errc:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start listening")
	}
	return "", nil
}

func newTracker(t *testing.T) *capability.Tracker {
	t.Helper()
	store, err := tracking.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &capability.Tracker{Store: store, IdleTimeout: time.Second}
}

// sendReport dials addr, sends one report and returns the reply line.
func sendReport(t *testing.T, addr, report string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck

	if _, err := conn.Write([]byte(report)); err != nil {
		t.Fatal(err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	return reply
}

// TestServeMode_Sequential verifies that without -k the server keeps
// accepting, one connection after another, until cancelled.
func TestServeMode_Sequential(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	mode := &ServeMode{Capability: newTracker(t), Logger: util.NewLogger(0), Metrics: metrics.New()}
	addr, errc := startServe(t, ctx, mode)

	for i := 0; i < 3; i++ {
		if reply := sendReport(t, addr, `{"location":{"latitude":1,"longitude":2}}`); reply != "OK#1\n" {
			t.Errorf("connection %d: reply = %q", i, reply)
		}
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	snap := mode.Metrics.Snapshot()
	if snap.ReportsAccepted != 3 || snap.ConnectionsTotal != 3 {
		t.Errorf("accepted = %d, connections = %d, want 3 and 3", snap.ReportsAccepted, snap.ConnectionsTotal)
	}
}

// TestServeMode_KeepOpen verifies -k serves several clients with
// independent counters and shuts down on cancel.
func TestServeMode_KeepOpen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	mode := &ServeMode{KeepOpen: true, Capability: newTracker(t), Logger: util.NewLogger(0)}
	addr, errc := startServe(t, ctx, mode)

	for i := 0; i < 3; i++ {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conn.Write([]byte(`{"bad"`)) //nolint:errcheck
		reply, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if reply != "ERROR: Bad JSON\n" {
			t.Errorf("reply %d = %q", i, reply)
		}
		conn.Close()
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

// TestServeMode_ClientExchange runs the real client against the real
// server.
func TestServeMode_ClientExchange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	mode := &ServeMode{Capability: newTracker(t), Logger: util.NewLogger(0)}
	addr, errc := startServe(t, ctx, mode)

	out := &bytes.Buffer{}
	client := newExchangeMode(addr, &transport.TCPDialer{Timeout: time.Second}, out)
	if err := client.Run(ctx); err != nil {
		t.Fatalf("client: %v", err)
	}
	if got := out.String(); !bytes.HasSuffix([]byte(got), []byte("Ответ сервера: ERROR: Bad JSON\n\n")) {
		t.Errorf("output = %q", got)
	}

	cancel()
	select {
	case <-errc:
	case <-time.After(3 * time.Second):
		t.Fatal("server did not return")
	}
}

// TestServeMode_ListenError verifies a bind failure is reported.
func TestServeMode_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	mode := &ServeMode{Address: ln.Addr().String(), Capability: newTracker(t), Logger: util.NewLogger(0)}
	if err := mode.Run(context.Background()); err == nil {
		t.Fatal("expected error for an address in use")
	}
}

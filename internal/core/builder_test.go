package core

import (
	"testing"

	"tcphello/config"
	"tcphello/internal/capability"
	"tcphello/internal/transport"
	"tcphello/util"
)

// TestBuild_Exchange verifies the default configuration produces an
// ExchangeMode over plain TCP.
func TestBuild_Exchange(t *testing.T) {
	cfg := config.Default()
	mode, err := Build(cfg, util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	em, ok := mode.(*ExchangeMode)
	if !ok {
		t.Fatalf("expected *ExchangeMode, got %T", mode)
	}
	if em.Address != "127.0.0.1:8080" {
		t.Errorf("Address = %q", em.Address)
	}
	if _, ok := em.Dialer.(*transport.TCPDialer); !ok {
		t.Errorf("expected *transport.TCPDialer, got %T", em.Dialer)
	}
	ex, ok := em.Capability.(*capability.Exchange)
	if !ok {
		t.Fatalf("expected *capability.Exchange, got %T", em.Capability)
	}
	if ex.Message != "Hello from C client!" || ex.BufferSize != 1024 {
		t.Errorf("unexpected exchange %+v", ex)
	}
	if em.Backoff.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", em.Backoff.MaxAttempts)
	}
}

// TestBuild_Tunnel verifies -T selects the SSH dialer.
func TestBuild_Tunnel(t *testing.T) {
	cfg := config.Default()
	cfg.TunnelSpec = "ops@bastion:2222"
	if err := cfg.ApplyTunnelSpec(); err != nil {
		t.Fatal(err)
	}

	mode, err := Build(cfg, util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mode.(*ExchangeMode).Dialer.(*transport.SSHDialer); !ok {
		t.Errorf("expected *transport.SSHDialer, got %T", mode.(*ExchangeMode).Dialer)
	}
}

// TestBuild_NoDNS verifies -n rejects host names.
func TestBuild_NoDNS(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "example.com"
	cfg.NoDNS = true
	if _, err := Build(cfg, util.NewLogger(0), nil); err == nil {
		t.Fatal("expected error for hostname with -n")
	}
}

// TestBuild_Serve verifies -l produces a ServeMode with its store.
func TestBuild_Serve(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = true
	cfg.LogDir = t.TempDir()

	mode, err := Build(cfg, util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	sm, ok := mode.(*ServeMode)
	if !ok {
		t.Fatalf("expected *ServeMode, got %T", mode)
	}
	if sm.Address != "0.0.0.0:8080" {
		t.Errorf("Address = %q", sm.Address)
	}
	tr, ok := sm.Capability.(*capability.Tracker)
	if !ok {
		t.Fatalf("expected *capability.Tracker, got %T", sm.Capability)
	}
	if tr.Store == nil || tr.Store.Dir != cfg.LogDir {
		t.Errorf("unexpected store %+v", tr.Store)
	}
	if tr.Track == nil {
		t.Error("tracker has no shared track")
	}
}

// TestBuild_Summarize verifies --summarize wins over the client.
func TestBuild_Summarize(t *testing.T) {
	cfg := config.Default()
	cfg.Summarize = "gps_logs"

	mode, err := Build(cfg, util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mode.(*SummarizeMode); !ok {
		t.Errorf("expected *SummarizeMode, got %T", mode)
	}
}

// TestBuild_Proxy verifies -X selects the SOCKS5 dialer.
func TestBuild_Proxy(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyAddr = "127.0.0.1:1080"
	cfg.ProxyAuth = "u:p"

	mode, err := Build(cfg, util.NewLogger(0), nil)
	if err != nil {
		t.Fatal(err)
	}
	sd, ok := mode.(*ExchangeMode).Dialer.(*transport.SOCKSDialer)
	if !ok {
		t.Fatalf("expected *transport.SOCKSDialer, got %T", mode.(*ExchangeMode).Dialer)
	}
	if sd.ProxyAddr != "127.0.0.1:1080" || sd.Auth != "u:p" {
		t.Errorf("unexpected dialer %+v", sd)
	}
}

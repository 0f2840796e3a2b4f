package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. INI file   (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfigFile names the INI file when --config is not given.
const EnvConfigFile = "TCPHELLO_CONFIG"

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the TCPHELLO_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TCPHELLO_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("TCPHELLO_PORT"); v > 0 {
		cfg.Port = v
	}
	if v, ok := os.LookupEnv("TCPHELLO_MESSAGE"); ok && v != "" {
		cfg.Message = v
	}
	if v := envInt("TCPHELLO_BUFFER_SIZE"); v > 0 {
		cfg.BufferSize = v
	}
	if v := envInt("TCPHELLO_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envInt("TCPHELLO_RETRIES"); v > 0 {
		cfg.Retries = v
	}
	if v := envDuration("TCPHELLO_RETRY_DELAY"); v > 0 {
		cfg.RetryDelay = v
	}
	if envBool("TCPHELLO_NO_DNS") {
		cfg.NoDNS = true
	}
	if v := os.Getenv("TCPHELLO_PROXY"); v != "" {
		cfg.ProxyAddr = v
	}
	if v := os.Getenv("TCPHELLO_PROXY_AUTH"); v != "" {
		cfg.ProxyAuth = v
	}

	// Tracking server
	if envBool("TCPHELLO_LISTEN") {
		cfg.Listen = true
	}
	if v := os.Getenv("TCPHELLO_LISTEN_HOST"); v != "" {
		cfg.ListenHost = v
	}
	if envBool("TCPHELLO_KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := os.Getenv("TCPHELLO_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := envDuration("TCPHELLO_IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = v
	}

	// SSH tunnel
	if v := os.Getenv("TCPHELLO_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("TCPHELLO_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("TCPHELLO_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("TCPHELLO_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("TCPHELLO_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("TCPHELLO_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("TCPHELLO_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("TCPHELLO_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts Go duration syntax ("750ms") or bare seconds.
func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return secondsDuration(n)
	}
	return 0
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// fileConfig mirrors the INI layout:
//
//	[client]
//	host = 127.0.0.1
//	port = 8080
//	message = Hello from C client!
//	buffer_size = 1024
//	timeout = 5s
//	retries = 3
//	retry_delay = 500ms
//	proxy = 127.0.0.1:1080
//
//	[server]
//	listen_host = 0.0.0.0
//	keep_open = true
//	log_dir = gps_logs
//	idle_timeout = 10s
//
//	[ssh]
//	tunnel = admin@bastion:22
//	key = ~/.ssh/id_ed25519
//
//	[log]
//	verbose = 2
//	format = json
type fileConfig struct {
	Client struct {
		Host       string        `ini:"host"`
		Port       int           `ini:"port"`
		Message    string        `ini:"message"`
		BufferSize int           `ini:"buffer_size"`
		Timeout    time.Duration `ini:"timeout"`
		Retries    int           `ini:"retries"`
		RetryDelay time.Duration `ini:"retry_delay"`
		NoDNS      bool          `ini:"no_dns"`
		Proxy      string        `ini:"proxy"`
		ProxyAuth  string        `ini:"proxy_auth"`
	}
	Server struct {
		ListenHost  string        `ini:"listen_host"`
		KeepOpen    bool          `ini:"keep_open"`
		LogDir      string        `ini:"log_dir"`
		IdleTimeout time.Duration `ini:"idle_timeout"`
	}
	SSH struct {
		Tunnel        string `ini:"tunnel"`
		Key           string `ini:"key"`
		Password      bool   `ini:"password"`
		Agent         bool   `ini:"agent"`
		StrictHostKey bool   `ini:"strict_hostkey"`
		KnownHosts    string `ini:"known_hosts"`
	}
	Log struct {
		Verbose int    `ini:"verbose"`
		Format  string `ini:"format"`
	}
}

// LoadFile overlays the INI file at path onto cfg.  Keys absent from
// the file leave cfg untouched.
func LoadFile(cfg *Config, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	fc := snapshot(cfg)
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"client", &fc.Client},
		{"server", &fc.Server},
		{"ssh", &fc.SSH},
		{"log", &fc.Log},
	}
	for _, s := range sections {
		if err := f.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("config %s [%s]: %w", path, s.name, err)
		}
	}
	fc.apply(cfg)
	return nil
}

func snapshot(cfg *Config) *fileConfig {
	fc := &fileConfig{}
	fc.Client.Host = cfg.Host
	fc.Client.Port = cfg.Port
	fc.Client.Message = cfg.Message
	fc.Client.BufferSize = cfg.BufferSize
	fc.Client.Timeout = cfg.Timeout
	fc.Client.Retries = cfg.Retries
	fc.Client.RetryDelay = cfg.RetryDelay
	fc.Client.NoDNS = cfg.NoDNS
	fc.Client.Proxy = cfg.ProxyAddr
	fc.Client.ProxyAuth = cfg.ProxyAuth

	fc.Server.ListenHost = cfg.ListenHost
	fc.Server.KeepOpen = cfg.KeepOpen
	fc.Server.LogDir = cfg.LogDir
	fc.Server.IdleTimeout = cfg.IdleTimeout

	fc.SSH.Tunnel = cfg.TunnelSpec
	fc.SSH.Key = cfg.SSHKeyPath
	fc.SSH.Password = cfg.SSHPassword
	fc.SSH.Agent = cfg.UseSSHAgent
	fc.SSH.StrictHostKey = cfg.StrictHostKey
	fc.SSH.KnownHosts = cfg.KnownHostsPath

	fc.Log.Verbose = cfg.Verbose
	fc.Log.Format = cfg.LogFormat
	return fc
}

func (fc *fileConfig) apply(cfg *Config) {
	cfg.Host = fc.Client.Host
	cfg.Port = fc.Client.Port
	cfg.Message = fc.Client.Message
	cfg.BufferSize = fc.Client.BufferSize
	cfg.Timeout = fc.Client.Timeout
	cfg.Retries = fc.Client.Retries
	cfg.RetryDelay = fc.Client.RetryDelay
	cfg.NoDNS = fc.Client.NoDNS
	cfg.ProxyAddr = fc.Client.Proxy
	cfg.ProxyAuth = fc.Client.ProxyAuth

	cfg.ListenHost = fc.Server.ListenHost
	cfg.KeepOpen = fc.Server.KeepOpen
	cfg.LogDir = fc.Server.LogDir
	cfg.IdleTimeout = fc.Server.IdleTimeout

	cfg.TunnelSpec = fc.SSH.Tunnel
	cfg.SSHKeyPath = fc.SSH.Key
	cfg.SSHPassword = fc.SSH.Password
	cfg.UseSSHAgent = fc.SSH.Agent
	cfg.StrictHostKey = fc.SSH.StrictHostKey
	cfg.KnownHostsPath = fc.SSH.KnownHosts

	cfg.Verbose = fc.Log.Verbose
	cfg.LogFormat = fc.Log.Format
}

package core

import (
	"tcphello/config"
	"tcphello/internal/capability"
	"tcphello/internal/metrics"
	"tcphello/internal/retry"
	"tcphello/internal/tracking"
	"tcphello/internal/transport"
	"tcphello/tunnel"
	"tcphello/util"
)

// Build constructs the appropriate Mode from the given configuration.
// m may be nil when no counters are wanted.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	switch {
	case cfg.Summarize != "":
		return &SummarizeMode{Path: cfg.Summarize, Logger: logger}, nil
	case cfg.Listen:
		return buildServe(cfg, logger, m)
	default:
		return buildExchange(cfg, logger, m)
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildExchange(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	return &ExchangeMode{
		Dialer:  buildDialer(cfg, logger),
		Backoff: retry.ForConnect(cfg.Retries, cfg.RetryDelay),
		Capability: &capability.Exchange{
			Message:    cfg.Message,
			BufferSize: cfg.BufferSize,
			Timeout:    cfg.Timeout,
		},
		Address: address,
		Logger:  logger,
		Metrics: m,
	}, nil
}

func buildServe(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	store, err := tracking.NewStore(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	logger.Verbose("storing reports under %s", store.Dir)

	return &ServeMode{
		Address:  util.FormatAddr(cfg.ListenHost, cfg.Port),
		KeepOpen: cfg.KeepOpen,
		Capability: &capability.Tracker{
			Store:       store,
			Track:       &tracking.Recorder{},
			IdleTimeout: cfg.IdleTimeout,
		},
		Logger:  logger,
		Metrics: m,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}

	if cfg.ProxyAddr != "" {
		return &transport.SOCKSDialer{
			ProxyAddr: cfg.ProxyAddr,
			Auth:      cfg.ProxyAuth,
			Timeout:   cfg.Timeout,
		}
	}

	return &transport.TCPDialer{Timeout: cfg.Timeout}
}

// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"tcphello/config"
	"tcphello/internal/core"
	"tcphello/internal/metrics"
	"tcphello/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X tcphello/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flagValues holds raw flag values; only the ones the user set are
// copied onto the Config so file and env settings survive.
type flagValues struct {
	message     string
	bufferSize  int
	timeoutSec  int
	retries     int
	retryDelay  time.Duration
	noDNS       bool
	proxy       string
	proxyAuth   string
	listen      bool
	port        int
	keepOpen    bool
	logDir      string
	idleTimeout time.Duration
	tunnel      string
	sshKey      string
	sshPassword bool
	sshAgent    bool
	strictHost  bool
	knownHosts  string
	configPath  string
	logFormat   string
	verbose     int
	summarize   string
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the selected tcphello mode, writing
// protocol output to os.Stdout and usage to os.Stderr.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var fv flagValues
	fs := newFlagSet(&fv, stderr)

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fv.showHelp {
		printUsage(fs, stderr)
		return nil
	}
	if fv.showVersion {
		fmt.Fprintf(stdout, "tcphello %s\n", version)
		return nil
	}

	cfg, err := buildConfig(fs, &fv)
	if err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	format, err := util.ParseLogFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logger.SetFormat(format)
	logger.SetOutput(stderr)

	mode, err := core.Build(cfg, logger, metrics.New())
	if err != nil {
		return err
	}
	setStdout(mode, stdout)
	return mode.Run(ctx)
}

func newFlagSet(fv *flagValues, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tcphello", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── client ───────────────────────────────────────────────────
	fs.StringVarP(&fv.message, "message", "m", config.DefaultMessage, "Message to send")
	fs.IntVarP(&fv.bufferSize, "buffer-size", "b", config.DefaultBufferSize, "Maximum reply size in bytes")
	fs.IntVarP(&fv.timeoutSec, "timeout", "w", 0, "Connect and I/O timeout in seconds (0 = none)")
	fs.IntVar(&fv.retries, "retries", config.DefaultRetries, "Connect attempts, including the first")
	fs.DurationVar(&fv.retryDelay, "retry-delay", config.DefaultRetryDelay, "Delay before the first connect retry")
	fs.BoolVarP(&fv.noDNS, "no-dns", "n", false, "Numeric-only host, no DNS resolution")
	fs.StringVarP(&fv.proxy, "proxy", "X", "", "Connect through a SOCKS5 proxy host:port")
	fs.StringVar(&fv.proxyAuth, "proxy-auth", "", "SOCKS5 credentials user:password")

	// ── tracking server ──────────────────────────────────────────
	fs.BoolVarP(&fv.listen, "listen", "l", false, "Run the tracking server")
	fs.IntVarP(&fv.port, "port", "p", config.DefaultPort, "Port to connect to or listen on")
	fs.BoolVarP(&fv.keepOpen, "keep-open", "k", false, "Serve connections concurrently until interrupted (with -l)")
	fs.StringVar(&fv.logDir, "log-dir", config.DefaultLogDir, "Directory for gps_YYYY-MM-DD.json logs")
	fs.DurationVar(&fv.idleTimeout, "idle-timeout", config.DefaultIdleTimeout, "Read timeout before a connection is polled again")
	fs.StringVar(&fv.summarize, "summarize", "", "Print a signal summary of a stored log file or directory")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&fv.tunnel, "tunnel", "T", "", "Connect through an SSH gateway [user@]host[:port]")
	fs.StringVar(&fv.sshKey, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&fv.sshPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&fv.sshAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&fv.strictHost, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&fv.knownHosts, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.StringVarP(&fv.configPath, "config", "c", "", "INI config file (default $"+config.EnvConfigFile+")")
	fs.StringVar(&fv.logFormat, "log-format", "console", "Log format: console or json")
	fs.CountVarP(&fv.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&fv.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&fv.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs, stderr) }
	return fs
}

// buildConfig layers defaults, the INI file, the environment, and the
// flags the user set, in that order.
func buildConfig(fs *flag.FlagSet, fv *flagValues) (*config.Config, error) {
	cfg := config.Default()

	path := fv.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	config.LoadFromEnv(cfg)

	set := fs.Changed
	if set("message") {
		cfg.Message = fv.message
	}
	if set("buffer-size") {
		cfg.BufferSize = fv.bufferSize
	}
	if set("timeout") {
		cfg.Timeout = time.Duration(fv.timeoutSec) * time.Second
	}
	if set("retries") {
		cfg.Retries = fv.retries
	}
	if set("retry-delay") {
		cfg.RetryDelay = fv.retryDelay
	}
	if set("no-dns") {
		cfg.NoDNS = fv.noDNS
	}
	if set("proxy") {
		cfg.ProxyAddr = fv.proxy
	}
	if set("proxy-auth") {
		cfg.ProxyAuth = fv.proxyAuth
	}
	if set("listen") {
		cfg.Listen = fv.listen
	}
	if set("port") {
		cfg.Port = fv.port
	}
	if set("keep-open") {
		cfg.KeepOpen = fv.keepOpen
	}
	if set("log-dir") {
		cfg.LogDir = fv.logDir
	}
	if set("idle-timeout") {
		cfg.IdleTimeout = fv.idleTimeout
	}
	if set("summarize") {
		cfg.Summarize = fv.summarize
	}
	if set("tunnel") {
		cfg.TunnelSpec = fv.tunnel
	}
	if set("ssh-key") {
		cfg.SSHKeyPath = fv.sshKey
	}
	if set("ssh-password") {
		cfg.SSHPassword = fv.sshPassword
	}
	if set("ssh-agent") {
		cfg.UseSSHAgent = fv.sshAgent
	}
	if set("strict-hostkey") {
		cfg.StrictHostKey = fv.strictHost
	}
	if set("known-hosts") {
		cfg.KnownHostsPath = fv.knownHosts
	}
	if set("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	cfg.Verbose += fv.verbose

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return nil, err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return nil, err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional applies [host [port]].  In listen mode the host is
// the bind address.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		return nil
	case 1, 2:
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}

	if cfg.Listen {
		cfg.ListenHost = remaining[0]
	} else {
		cfg.Host = remaining[0]
	}
	if len(remaining) == 2 {
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	}
	return nil
}

// setStdout points the mode's protocol output at w.
func setStdout(mode core.Mode, w io.Writer) {
	switch m := mode.(type) {
	case *core.ExchangeMode:
		m.Stdout = w
	case *core.ServeMode:
		m.Stdout = w
	case *core.SummarizeMode:
		m.Stdout = w
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `tcphello %s

Sends one greeting to a TCP server and prints the reply, or runs the
GPS/LTE tracking server that answers such clients.

Usage:
  tcphello [options] [host [port]]            One exchange (default %s %d)
  tcphello -l [-p port] [-k] [options]        Tracking server
  tcphello --summarize FILE|DIR               Signal summary of stored logs
  tcphello -T user@gateway [host [port]]      Exchange through SSH
  tcphello -X proxy:1080 [host [port]]        Exchange through SOCKS5

Options:
`, version, config.DefaultHost, config.DefaultPort)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  tcphello                                    Greet 127.0.0.1:8080
  tcphello -m '{"location":{"latitude":55.7,"longitude":37.6}}'
  tcphello -l -k --log-dir /var/lib/gps       Serve clients concurrently
  tcphello -T ops@bastion 10.0.0.5 8080       Exchange via a gateway
`)
}

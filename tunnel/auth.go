package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	ncerr "tcphello/internal/errors"
)

// defaultKeyNames are looked up under ~/.ssh when the user configured
// no explicit method.
var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// promptSecret reads a secret from the controlling terminal.
var promptSecret = readSecret //nolint:gochecknoglobals

// BuildAuthMethods returns the gateway auth methods in the order the
// server should try them: key file, agent, password.  An explicitly
// requested method that cannot be set up is an error.  With nothing
// requested the agent and the default key files are probed quietly.
func BuildAuthMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	sources := []struct {
		on    bool
		label string
		build func() (ssh.AuthMethod, error)
	}{
		{cfg.KeyPath != "", "key " + cfg.KeyPath, func() (ssh.AuthMethod, error) { return keyFileAuth(cfg.KeyPath, true) }},
		{cfg.UseAgent, "ssh-agent", agentAuth},
		{cfg.PromptPass, "password", passwordAuth},
	}

	var methods []ssh.AuthMethod
	for _, s := range sources {
		if !s.on {
			continue
		}
		m, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.label, err)
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		methods = discoverAuthMethods()
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: nothing to authenticate with; "+
			"pass --ssh-key, --ssh-agent, or --ssh-password", ncerr.ErrAuthFailed)
	}
	return methods, nil
}

// keyFileAuth loads a private key.  Encrypted keys prompt for their
// passphrase only when interactive is set.
func keyFileAuth(path string, interactive bool) (ssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(pem)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) && interactive {
		pass, perr := promptSecret(fmt.Sprintf("Enter passphrase for %s: ", path))
		if perr != nil {
			return nil, fmt.Errorf("passphrase: %w", perr)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, pass)
	}
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

func agentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("agent at %s: %w", sock, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

func passwordAuth() (ssh.AuthMethod, error) {
	pass, err := promptSecret("SSH password: ")
	if err != nil {
		return nil, err
	}
	return ssh.Password(string(pass)), nil
}

// readSecret prompts on stderr and reads one line without echo.
func readSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(fd)
}

// discoverAuthMethods probes the agent and the default key files.
// Encrypted keys are skipped.
func discoverAuthMethods() []ssh.AuthMethod {
	var out []ssh.AuthMethod
	if m, err := agentAuth(); err == nil {
		out = append(out, m)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return out
	}
	for _, name := range defaultKeyNames {
		if m, err := keyFileAuth(filepath.Join(home, ".ssh", name), false); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// hostKeyCallback accepts any gateway key unless StrictHostKey is set,
// in which case the key must be listed in known_hosts.
func hostKeyCallback(cfg *SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home directory: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known_hosts %s: %w", path, err)
	}
	return cb, nil
}

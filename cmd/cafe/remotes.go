package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

// RemotesConfig is the on-disk list of server profiles.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is one server profile: where the HTTP API, the gRPC endpoint and
// the event bus live, and the token used for writes.
type Remote struct {
	URL     string `toml:"url"`
	Server  string `toml:"server,omitempty"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
}

var errNoActiveRemote = errors.New("no active remote; pass a name or run 'cafe remote use <name>'")

func remotesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "cafe", "remotes.toml"), nil
}

// readRemotes loads the remotes file. A missing file is an empty config.
func readRemotes() (*RemotesConfig, error) {
	path, err := remotesPath()
	if err != nil {
		return nil, err
	}
	cfg := &RemotesConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]Remote)
	}
	return cfg, nil
}

// write stores cfg readable by the owner only, since it holds tokens.
func (cfg *RemotesConfig) write() error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// lookup resolves name, or the active remote when name is empty.
func (cfg *RemotesConfig) lookup(name string) (string, Remote, error) {
	if name == "" {
		name = cfg.Active
	}
	if name == "" {
		return "", Remote{}, errNoActiveRemote
	}
	r, ok := cfg.Remotes[name]
	if !ok {
		return "", Remote{}, fmt.Errorf("remote %q not found", name)
	}
	return name, r, nil
}

func (cfg *RemotesConfig) names() []string {
	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// editRemotes loads the file, applies fn, and saves the result when fn
// succeeds.
func editRemotes(fn func(cfg *RemotesConfig) error) error {
	cfg, err := readRemotes()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return cfg.write()
}

func validateRemoteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: want http(s)://host[:port]", raw)
	}
	return nil
}

// currentRemote is the active profile, read once per process. Flag
// defaults fall back to it after their environment variables.
var currentRemote = sync.OnceValue(func() Remote {
	cfg, err := readRemotes()
	if err != nil {
		return Remote{}
	}
	_, r, err := cfg.lookup("")
	if err != nil {
		return Remote{}
	}
	return r
})

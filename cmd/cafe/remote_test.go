package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolatedHome points the remotes file at a fresh temp dir.
func isolatedHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func mustRemotes(t *testing.T) *RemotesConfig {
	t.Helper()
	cfg, err := readRemotes()
	if err != nil {
		t.Fatalf("reading remotes: %v", err)
	}
	return cfg
}

func TestRemotesFile_WriteThenRead(t *testing.T) {
	isolatedHome(t)

	want := Remote{
		URL:     "https://cafe.example.com",
		Server:  "cafe.example.com:9090",
		Token:   "tok_counter",
		NATSURL: "nats://bus.example.com:4222",
	}
	cfg := &RemotesConfig{Active: "shop", Remotes: map[string]Remote{
		"shop":   want,
		"laptop": {URL: "http://localhost:8080"},
	}}
	if err := cfg.write(); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := mustRemotes(t)
	if got.Active != "shop" {
		t.Errorf("active = %q, want shop", got.Active)
	}
	if got.Remotes["shop"] != want {
		t.Errorf("shop = %+v, want %+v", got.Remotes["shop"], want)
	}
	if names := got.names(); strings.Join(names, ",") != "laptop,shop" {
		t.Errorf("names = %v, want sorted", names)
	}
}

func TestRemotesFile_MissingIsEmpty(t *testing.T) {
	isolatedHome(t)

	cfg := mustRemotes(t)
	if cfg.Active != "" || cfg.Remotes == nil || len(cfg.Remotes) != 0 {
		t.Fatalf("got %+v, want empty config with a usable map", cfg)
	}
	if _, _, err := cfg.lookup(""); err != errNoActiveRemote {
		t.Fatalf("lookup with no active remote: err = %v", err)
	}
}

func TestRemotesFile_OwnerOnly(t *testing.T) {
	isolatedHome(t)

	if err := (&RemotesConfig{Remotes: map[string]Remote{}}).write(); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, err := remotesPath()
	if err != nil {
		t.Fatal(err)
	}
	for p, want := range map[string]os.FileMode{path: 0o600, filepath.Dir(path): 0o700} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s mode = %04o, want %04o", p, got, want)
		}
	}
}

func TestRemoteAdd_FirstBecomesActive(t *testing.T) {
	isolatedHome(t)

	if _, err := runCmd(t, remoteAddCmd, "shop", "https://cafe.example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, remoteAddCmd, "laptop", "http://localhost:8080"); err != nil {
		t.Fatal(err)
	}
	if got := mustRemotes(t).Active; got != "shop" {
		t.Fatalf("active = %q, want the first remote added", got)
	}

	if _, err := runCmd(t, remoteUseCmd, "laptop"); err != nil {
		t.Fatal(err)
	}
	if got := mustRemotes(t).Active; got != "laptop" {
		t.Fatalf("active = %q after use", got)
	}
}

func TestRemoteAdd_RejectsBadURL(t *testing.T) {
	isolatedHome(t)

	for _, raw := range []string{"localhost:8080", "ftp://cafe.example.com", "https://"} {
		if _, err := runCmd(t, remoteAddCmd, "bad", raw); err == nil {
			t.Errorf("add %q: expected an error", raw)
		}
	}
	if n := len(mustRemotes(t).Remotes); n != 0 {
		t.Fatalf("%d remotes saved after rejected adds", n)
	}
}

func TestRemoteListAndShow(t *testing.T) {
	isolatedHome(t)
	jsonOutput = false

	if err := remoteAddCmd.Flags().Set("token", "tok_counter_secret"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = remoteAddCmd.Flags().Set("token", "") })
	if _, err := runCmd(t, remoteAddCmd, "shop", "https://cafe.example.com"); err != nil {
		t.Fatal(err)
	}

	list, err := runCmd(t, remoteListCmd)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(list, "*") || !strings.Contains(list, "shop") || !strings.Contains(list, "tok_co…") {
		t.Errorf("list output:\n%s", list)
	}

	show, err := runCmd(t, remoteShowCmd)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"shop (active)", "https://cafe.example.com", "gRPC:    -", "Token:   tok_co…"} {
		if !strings.Contains(show, want) {
			t.Errorf("show output missing %q:\n%s", want, show)
		}
	}
	for name, out := range map[string]string{"list": list, "show": show} {
		if strings.Contains(out, "tok_counter_secret") {
			t.Errorf("%s leaked the full token", name)
		}
	}
}

func TestRemoteRemove_ClearsActive(t *testing.T) {
	isolatedHome(t)

	if _, err := runCmd(t, remoteAddCmd, "shop", "https://cafe.example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, remoteRemoveCmd, "shop"); err != nil {
		t.Fatal(err)
	}
	cfg := mustRemotes(t)
	if _, ok := cfg.Remotes["shop"]; ok || cfg.Active != "" {
		t.Fatalf("after remove: %+v", cfg)
	}
}

func TestRemoteCommands_UnknownName(t *testing.T) {
	cases := map[string]func(t *testing.T) error{
		"use": func(t *testing.T) error {
			_, err := runCmd(t, remoteUseCmd, "ghost")
			return err
		},
		"remove": func(t *testing.T) error {
			_, err := runCmd(t, remoteRemoveCmd, "ghost")
			return err
		},
		"show by name": func(t *testing.T) error {
			_, err := runCmd(t, remoteShowCmd, "ghost")
			return err
		},
		"show with no active": func(t *testing.T) error {
			_, err := runCmd(t, remoteShowCmd)
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			isolatedHome(t)
			if err := run(t); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRedactToken(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "******"},
		{"abcdefgh", "abcdef…"},
	}
	for _, tt := range tests {
		if got := redactToken(tt.in); got != tt.want {
			t.Errorf("redactToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

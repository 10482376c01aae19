package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// gitFixture is a working clone of a bare remote with one commit on main.
type gitFixture struct {
	remote string
	clone  string
}

func newGitFixture(t *testing.T) *gitFixture {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	f := &gitFixture{remote: t.TempDir()}
	f.git(t, f.remote, "init", "--bare")

	work := t.TempDir()
	f.git(t, work, "clone", f.remote, "repo")
	f.clone = filepath.Join(work, "repo")
	f.git(t, f.clone, "config", "user.email", "cafe-sync@example.com")
	f.git(t, f.clone, "config", "user.name", "Cafe Sync")
	f.git(t, f.clone, "symbolic-ref", "HEAD", "refs/heads/main")
	if err := os.WriteFile(filepath.Join(f.clone, "README"), []byte("snapshots\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.git(t, f.clone, "add", ".")
	f.git(t, f.clone, "commit", "-m", "init")
	f.git(t, f.clone, "push", "origin", "main")
	return f
}

func (f *gitFixture) git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func (f *gitFixture) remoteHead(t *testing.T) string {
	return f.git(t, f.remote, "rev-parse", "main")
}

func (f *gitFixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.clone, rel))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func snapshot(header, body string) []byte {
	return []byte(header + "\n" + body + "\n")
}

func TestGitDestination_CommitsAndPushes(t *testing.T) {
	f := newGitFixture(t)
	dest := NewGitDestination(f.clone, "cafe.jsonl", "main")
	before := f.remoteHead(t)

	open := snapshot(`{"type":"header","timestamp":"t1"}`, `{"type":"status","data":{"id":1,"is_open":true}}`)
	if err := dest.Write(context.Background(), open); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := f.read(t, "cafe.jsonl"); got != string(open) {
		t.Fatalf("file = %q", got)
	}
	after := f.remoteHead(t)
	if after == before {
		t.Fatal("snapshot was not pushed")
	}
	if msg := f.git(t, f.clone, "log", "-1", "--format=%s"); !strings.HasPrefix(msg, "sync: cafe snapshot ") {
		t.Errorf("commit message = %q", msg)
	}
}

func TestGitDestination_HeaderOnlyChangeIsNoop(t *testing.T) {
	f := newGitFixture(t)
	dest := NewGitDestination(f.clone, "cafe.jsonl", "main")
	body := `{"type":"status","data":{"id":1,"is_open":true}}`

	if err := dest.Write(context.Background(), snapshot(`{"type":"header","timestamp":"t1"}`, body)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	head := f.remoteHead(t)

	if err := dest.Write(context.Background(), snapshot(`{"type":"header","timestamp":"t2"}`, body)); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if f.remoteHead(t) != head {
		t.Fatal("unchanged snapshot produced a commit")
	}

	closed := snapshot(`{"type":"header","timestamp":"t3"}`, `{"type":"status","data":{"id":1,"is_open":false}}`)
	if err := dest.Write(context.Background(), closed); err != nil {
		t.Fatalf("third write: %v", err)
	}
	if f.remoteHead(t) == head {
		t.Fatal("changed snapshot was not committed")
	}
	if got := f.read(t, "cafe.jsonl"); got != string(closed) {
		t.Fatalf("file = %q", got)
	}
}

func TestGitDestination_NestedPath(t *testing.T) {
	f := newGitFixture(t)
	dest := NewGitDestination(f.clone, "backups/cafe.jsonl", "main")

	data := snapshot(`{"type":"header"}`, `{"type":"hero","data":{"id":3,"title":"Brewed Fresh"}}`)
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := f.read(t, "backups/cafe.jsonl"); got != string(data) {
		t.Fatalf("file = %q", got)
	}
}

func TestGitDestination_MissingBranch(t *testing.T) {
	f := newGitFixture(t)

	err := NewGitDestination(f.clone, "cafe.jsonl", "no-such-branch").Write(context.Background(), []byte("{}\n"))
	if err == nil || !strings.Contains(err.Error(), "git checkout") {
		t.Fatalf("err = %v, want a git checkout failure", err)
	}
}

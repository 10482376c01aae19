package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestNew_Length(t *testing.T) {
	for _, prefix := range []string{PrefixInstance, PrefixSubscriber, PrefixWatcher, ""} {
		id, err := New(prefix)
		if err != nil {
			t.Fatalf("New(%q) error: %v", prefix, err)
		}
		if want := len(prefix) + Length; len(id) != want {
			t.Errorf("New(%q) length = %d, want %d (id=%q)", prefix, len(id), want, id)
		}
		if !strings.HasPrefix(id, prefix) {
			t.Errorf("New(%q) = %q, missing prefix", prefix, id)
		}
	}
}

func TestNew_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(PrefixSubscriber) + `[a-zA-Z0-9]+$`)
	for i := 0; i < 100; i++ {
		id := MustNew(PrefixSubscriber)
		if !pattern.MatchString(id) {
			t.Fatalf("MustNew() = %q, does not match expected charset pattern", id)
		}
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := MustNew(PrefixWatcher)
		if seen[id] {
			t.Fatalf("duplicate ID on iteration %d: %q", i, id)
		}
		seen[id] = true
	}
}

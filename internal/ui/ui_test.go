package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/brewco/cafe/internal/model"
)

func withColor(t *testing.T, on bool) {
	t.Helper()
	prev := noColor
	noColor = !on
	t.Cleanup(func() { noColor = prev })
}

func TestRenderState(t *testing.T) {
	withColor(t, false)
	for _, tc := range []struct {
		state model.DisplayState
		want  string
	}{
		{model.Open, "● Open Now"},
		{model.Closed, "● Closed"},
		{model.Unknown, "○ Loading Status..."},
	} {
		if got := RenderState(tc.state); got != tc.want {
			t.Errorf("RenderState(%v) = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestRenderState_Color(t *testing.T) {
	withColor(t, true)
	open, closed := RenderState(model.Open), RenderState(model.Closed)
	if !strings.HasPrefix(open, "\x1b[38;5;71m") || !strings.HasSuffix(open, "\x1b[0m") {
		t.Errorf("open badge = %q", open)
	}
	if open == closed {
		t.Error("open and closed badges share a color")
	}
}

func TestRenderStateWord(t *testing.T) {
	withColor(t, false)
	if got := RenderStateWord(model.Closed); got != "closed" {
		t.Errorf("plain = %q", got)
	}
	withColor(t, true)
	if got := RenderStateWord(model.Open); got != "\x1b[38;5;71mopen\x1b[0m" {
		t.Errorf("colored = %q", got)
	}
}

func TestRenderHours(t *testing.T) {
	withColor(t, false)
	if got := RenderHours(true, "09:00-23:00 Asia/Kolkata"); got != "within hours 09:00-23:00 Asia/Kolkata" {
		t.Errorf("got %q", got)
	}
	if got := RenderHours(false, "09:00-23:00 Asia/Kolkata"); !strings.HasPrefix(got, "outside") {
		t.Errorf("got %q", got)
	}
}

func TestShouldUseColor(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColorWins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Forced", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"CLICOLOR": "0"}, false},
		{"DumbTerminal", map[string]string{"TERM": "dumb"}, false},
		{"NotATerminal", map[string]string{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR_FORCE", "CLICOLOR", "TERM"} {
				t.Setenv(k, tc.env[k])
			}
			// The test binary's stdout is a pipe, never a TTY.
			if got := ShouldUseColor(os.Stdout); got != tc.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tc.want)
			}
		})
	}
}

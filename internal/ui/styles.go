// Package ui renders terminal output for the cafe CLI.
package ui

import (
	"fmt"

	"github.com/brewco/cafe/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOpen   = 71  // green
	colorClosed = 167 // red
	colorWait   = 179 // amber
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderState renders the storefront badge for a display state:
// "● Open Now", "● Closed" or "○ Loading Status...".
func RenderState(d model.DisplayState) string {
	switch d {
	case model.Open:
		return paint(colorOpen, "● "+d.Label())
	case model.Closed:
		return paint(colorClosed, "● "+d.Label())
	default:
		return paint(colorWait, "○ "+d.Label())
	}
}

// RenderStateWord renders the bare state name ("open", "closed",
// "loading") in the state's color.
func RenderStateWord(d model.DisplayState) string {
	switch d {
	case model.Open:
		return paint(colorOpen, d.String())
	case model.Closed:
		return paint(colorClosed, d.String())
	default:
		return paint(colorWait, d.String())
	}
}

// RenderHours renders the opening-hours hint that accompanies the badge.
func RenderHours(within bool, hours string) string {
	if within {
		return RenderMuted("within hours " + hours)
	}
	return RenderMuted("outside hours " + hours)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

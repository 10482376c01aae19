package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/ui"
	"github.com/spf13/cobra"
)

// helpStyle says how each part of cobra's help text is rendered.
type helpStyle struct {
	header  func(string) string
	command func(string) string
	muted   func(string) string
	state   func(model.DisplayState) string
}

var terminalHelpStyle = helpStyle{
	header:  ui.RenderAccent,
	command: ui.RenderCommand,
	muted:   ui.RenderMuted,
	state:   ui.RenderStateWord,
}

func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		if !ui.ShouldUseColor(os.Stdout) {
			_ = cmd.Usage()
			return
		}
		orig := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)
		fmt.Fprint(orig, terminalHelpStyle.apply(buf.String()))
	}
}

// apply styles help text line by line. A header is an unindented line
// ending in ":"; the section it opens decides how the lines under it look.
func (st helpStyle) apply(help string) string {
	var b strings.Builder
	section := ""
	for line := range strings.Lines(help) {
		body, nl := strings.CutSuffix(line, "\n")
		switch {
		case isHelpHeader(body):
			section = strings.TrimSuffix(strings.TrimRight(body, " "), ":")
			b.WriteString(st.header(strings.TrimRight(body, " ")))
		case section == "Usage":
			b.WriteString(st.usageLine(body))
		case strings.HasSuffix(section, "Flags"):
			b.WriteString(st.flagLine(body))
		case section == "Examples" || section == "Aliases":
			b.WriteString(body)
		default:
			b.WriteString(st.commandLine(body))
		}
		if nl {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func isHelpHeader(line string) bool {
	return line != "" && line[0] >= 'A' && line[0] <= 'Z' &&
		strings.HasSuffix(strings.TrimRight(line, " "), ":")
}

// usageLine colours the open/closed placeholder of `cafe set`.
func (st helpStyle) usageLine(line string) string {
	return strings.ReplaceAll(line, "<open|closed>",
		"<"+st.state(model.Open)+"|"+st.state(model.Closed)+">")
}

// commandLine styles "  name   description" rows of a command group.
func (st helpStyle) commandLine(line string) string {
	rest, ok := strings.CutPrefix(line, "  ")
	if !ok {
		return line
	}
	name, desc, ok := strings.Cut(rest, "  ")
	if !ok || name == "" || strings.Contains(name, " ") {
		return line
	}
	return "  " + st.command(name) + "  " + desc
}

// flagLine mutes the value type and the default of a pflag usage row,
// e.g. "      --row int   status row id (default 1)".
func (st helpStyle) flagLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]
	spec, desc, ok := strings.Cut(trimmed, "  ")
	if !ok {
		return line
	}
	if i := strings.LastIndexByte(spec, ' '); i >= 0 && !strings.HasPrefix(spec[i+1:], "-") {
		spec = spec[:i+1] + st.muted(spec[i+1:])
	}
	if i := strings.LastIndex(desc, "(default "); i >= 0 && strings.HasSuffix(desc, ")") {
		desc = desc[:i] + st.muted(desc[i:])
	}
	return indent + spec + "  " + desc
}

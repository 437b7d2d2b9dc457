package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"docvia-widget/internal/conversation"
	"docvia-widget/internal/widget"
)

const ansiReset = "\x1b[0m"

// terminalView prints each message once, in order, and a typing line while a
// reply is pending.
type terminalView struct {
	out io.Writer

	mu       sync.Mutex
	cfg      widget.Config
	rendered int
	open     bool
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) setConfig(cfg widget.Config) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg = cfg
}

func (v *terminalView) render(snap conversation.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if snap.Open != v.open {
		v.open = snap.Open
		if snap.Open {
			fmt.Fprintf(v.out, "%s── %s ──%s\n", colorize(v.cfg.HeaderTextColor), v.cfg.AgentName, ansiReset)
			// Reopening shows the whole history again.
			v.rendered = 0
		} else {
			fmt.Fprintln(v.out, "(closed)")
		}
	}
	if !snap.Open {
		return
	}

	for _, msg := range snap.Messages[v.rendered:] {
		name, color := "you", v.cfg.VisitorTextColor
		if msg.Sender == conversation.SenderAgent {
			name, color = v.cfg.AgentName, v.cfg.AgentTextColor
		}
		fmt.Fprintf(v.out, "%s[%s] %s:%s %s\n", colorize(color), msg.Timestamp.Format("15:04"), name, ansiReset, msg.Message)
	}
	v.rendered = len(snap.Messages)

	if snap.State == conversation.StateSending {
		fmt.Fprintf(v.out, "%s is typing…\n", v.cfg.AgentName)
	}
}

func (v *terminalView) hint(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "(%s)\n", text)
}

// colorize turns a #RRGGBB color into a 24-bit ANSI foreground sequence.
func colorize(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return ""
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", rgb>>16&0xff, rgb>>8&0xff, rgb&0xff)
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
	statusCanceled
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// statusStyles pairs each tag label with its color.
var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:     {"INFO", ansiCyan},
	statusOK:       {"OK", ansiGreen},
	statusWarn:     {"WARN", ansiYellow},
	statusError:    {"ERROR", ansiRed},
	statusCanceled: {"CANCELED", ansiYellow},
}

// renderStatusTag formats one tagged console line. Only the tag is colored
// so the message stays readable on any background.
func renderStatusTag(kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	tag := "[" + style.label + "]"
	if colorize && style.color != "" {
		tag = style.color + tag + ansiReset
	}
	if message == "" {
		return tag
	}
	return tag + " " + message
}

func renderSectionHeader(title string, colorize bool) string {
	line := "== " + strings.TrimSpace(title) + " =="
	if colorize {
		return ansiCyan + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	return ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()))
}

// consoleStatus adapts tagged console lines to the pipeline's status sink.
type consoleStatus struct {
	out      io.Writer
	colorize bool
}

func newConsoleStatus(out io.Writer) *consoleStatus {
	return &consoleStatus{out: out, colorize: shouldColorize(out)}
}

func (s *consoleStatus) Info(message string) { s.print(statusInfo, message) }

func (s *consoleStatus) OK(message string) { s.print(statusOK, message) }

func (s *consoleStatus) Warn(message string) { s.print(statusWarn, message) }

func (s *consoleStatus) print(kind statusKind, message string) {
	fmt.Fprintln(s.out, renderStatusTag(kind, message, s.colorize))
}

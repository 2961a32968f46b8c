// Package ui centralizes terminal output. Status and progress go to
// stderr; only machine-consumable content (plan JSON, patch text) goes
// to stdout.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor  = color.New(color.FgBlue, color.Bold)
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func Header(format string, a ...interface{}) {
	headerColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	successColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	warningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", a...)
}

// Plain writes uncolored text to stderr.
func Plain(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

// Rule draws a separator line.
func Rule() {
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 60))
}

// Confirm asks a yes/no question on stderr and reads the answer from
// stdin. Any read error counts as a refusal.
func Confirm(question string, defaultYes bool) bool {
	return ConfirmFrom(os.Stdin, question, defaultYes)
}

// ConfirmFrom is Confirm with an injectable reader for tests.
func ConfirmFrom(in io.Reader, question string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(os.Stderr, "%s %s ", question, suffix)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return defaultYes
	}
	return strings.HasPrefix(answer, "y")
}

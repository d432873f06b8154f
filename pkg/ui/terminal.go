// Package ui holds the terminal output helpers: colored status lines and a
// process-wide quiet mode. Structured logging goes through pkg/logger; this
// package is only the human-facing progress surface.
package ui

import (
	"fmt"
	"sync/atomic"
)

// Color functions for terminal output
var (
	Cyan   = colorize("\033[36m%s\033[0m")
	Yellow = colorize("\033[33m%s\033[0m")
	Red    = colorize("\033[31m%s\033[0m")
	Green  = colorize("\033[32m%s\033[0m")
	Dim    = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

var quiet atomic.Bool

// SetQuietMode suppresses all non-error output
func SetQuietMode(on bool) {
	quiet.Store(on)
}

// IsQuietMode reports whether non-error output is suppressed
func IsQuietMode() bool {
	return quiet.Load()
}

// PrintError prints an error message in red. Errors print even in quiet mode.
func PrintError(format string, args ...interface{}) {
	fmt.Println(Red(fmt.Sprintf(format, args...)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Green(msg))
}

// PrintInfo prints a labeled value in cyan/yellow
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Yellow(fmt.Sprintf(format, args...)))
}

// PrintLine prints a plain line, dimmed
func PrintLine(format string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	fmt.Println(Dim(fmt.Sprintf(format, args...)))
}

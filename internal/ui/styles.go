// Package ui styles CLI output with ANSI colors.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorOK       = 114 // green
	colorWarn     = 179 // amber
	colorCritical = 167 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color. Category headings and
// help section titles use it.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderOK marks a success line.
func RenderOK(s string) string { return paint(colorOK, s) }

// RenderError marks a failure line.
func RenderError(s string) string { return paint(colorCritical, s) }

// RenderLevel colors a protection level name: critical in red, high in
// amber, anything else muted.
func RenderLevel(level string) string {
	switch level {
	case "critical":
		return paint(colorCritical, level)
	case "high":
		return paint(colorWarn, level)
	default:
		return paint(colorMuted, level)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

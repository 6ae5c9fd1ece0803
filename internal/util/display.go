package util

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"

	ClearScreen    = "\033[2J"
	MoveCursorHome = "\033[H"
)

// DefaultTerminalWidth is used when stdout is not a terminal.
const DefaultTerminalWidth = 100

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// GetDisplayWidth returns the number of terminal cells text occupies.
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads or truncates text to exactly width cells.
func PadRight(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		return runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}

// PadLeft right-aligns text in width cells.
func PadLeft(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		return runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillLeft(text, width)
}

// Colorize wraps text in an ANSI color unless color is empty.
func Colorize(text, color string) string {
	if color == "" {
		return text
	}
	return color + text + ColorReset
}

// FormatSectionSeparator returns a rule of width cells.
func FormatSectionSeparator(width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return strings.Repeat("─", width)
}

// StdoutIsTerminal reports whether stdout is attached to a terminal.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

package stats

import (
	"os"

	"golang.org/x/term"
)

const terminalWidthBackup = 80

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ColorEnabled reports whether ANSI colors should be written to file.
func ColorEnabled(file *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

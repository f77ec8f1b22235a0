package display

import (
	"os"

	"golang.org/x/term"
)

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

var enabled = detect()

// detect turns colors on for a terminal stdout unless NO_COLOR is set
func detect() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// SetEnabled overrides terminal detection
func SetEnabled(on bool) {
	enabled = on
}

func Enabled() bool {
	return enabled
}

// Paint wraps s in color when colors are enabled
func Paint(color, s string) string {
	if !enabled {
		return s
	}
	return color + s + Reset
}

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Paint(Yellow, text+" > ")
}

// Package detector picks the log format from the environment.
package detector

import (
	"io"
	"os"

	"golang.org/x/term"
)

// LogFormat is the encoding of log records.
type LogFormat int

const (
	// FormatPretty writes colored, human-readable lines.
	FormatPretty LogFormat = iota
	// FormatJSON writes one JSON object per record.
	FormatJSON
)

// DetectLogFormat returns FormatJSON when w is a file that is not a terminal
// or when running under CI, and FormatPretty otherwise.
func DetectLogFormat(w io.Writer) LogFormat {
	ci := os.Getenv("CI")
	if ci == "true" || ci == "1" {
		return FormatJSON
	}

	f, ok := w.(*os.File)
	if !ok {
		return FormatPretty
	}
	if !term.IsTerminal(int(f.Fd())) {
		return FormatJSON
	}
	return FormatPretty
}

// ResolveFormat applies the user's flag to the detected format.
// userFlag is one of "auto", "pretty", "json" or empty.
func ResolveFormat(detected LogFormat, userFlag string) LogFormat {
	switch userFlag {
	case "pretty", "text":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return detected
	}
}

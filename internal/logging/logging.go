package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Verbosity controls how much of the pipeline's diagnostic output is emitted.
// A message is logged only if its importance meets or exceeds the configured
// threshold. Diagnostic additionally unlocks low-level trace messages.
type Verbosity int

const (
	VerbosityQuiet Verbosity = iota
	VerbosityMinimal
	VerbosityNormal
	VerbosityDetailed
	VerbosityDiagnostic
)

// String returns the canonical name of the verbosity level.
func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityMinimal:
		return "minimal"
	case VerbosityNormal:
		return "normal"
	case VerbosityDetailed:
		return "detailed"
	case VerbosityDiagnostic:
		return "diagnostic"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// ParseVerbosity converts a user-supplied level name into a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "q":
		return VerbosityQuiet, nil
	case "minimal", "m":
		return VerbosityMinimal, nil
	case "normal", "n", "":
		return VerbosityNormal, nil
	case "detailed", "d":
		return VerbosityDetailed, nil
	case "diagnostic", "diag":
		return VerbosityDiagnostic, nil
	default:
		return VerbosityNormal, fmt.Errorf("unknown verbosity level: %q", s)
	}
}

// Level maps a Verbosity onto the zerolog level threshold.
func (v Verbosity) Level() zerolog.Level {
	switch v {
	case VerbosityQuiet:
		return zerolog.ErrorLevel
	case VerbosityMinimal:
		return zerolog.WarnLevel
	case VerbosityNormal:
		return zerolog.InfoLevel
	case VerbosityDetailed:
		return zerolog.DebugLevel
	case VerbosityDiagnostic:
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to w at the given verbosity.
func New(w io.Writer, v Verbosity) zerolog.Logger {
	return zerolog.New(w).Level(v.Level()).With().Timestamp().Logger()
}

// NewConsole builds a human-readable logger for CLI use.
func NewConsole(v Verbosity) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(v.Level()).With().Timestamp().Logger()
}

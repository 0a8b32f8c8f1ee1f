package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"quiet", VerbosityQuiet, false},
		{"q", VerbosityQuiet, false},
		{"minimal", VerbosityMinimal, false},
		{"Normal", VerbosityNormal, false},
		{"", VerbosityNormal, false},
		{" detailed ", VerbosityDetailed, false},
		{"diag", VerbosityDiagnostic, false},
		{"diagnostic", VerbosityDiagnostic, false},
		{"loud", VerbosityNormal, true},
	}

	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVerbosity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		v    Verbosity
		want zerolog.Level
	}{
		{VerbosityQuiet, zerolog.ErrorLevel},
		{VerbosityMinimal, zerolog.WarnLevel},
		{VerbosityNormal, zerolog.InfoLevel},
		{VerbosityDetailed, zerolog.DebugLevel},
		{VerbosityDiagnostic, zerolog.TraceLevel},
		{Verbosity(99), zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := tt.v.Level(); got != tt.want {
			t.Errorf("%s.Level() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestVerbosityString(t *testing.T) {
	if got := VerbosityDetailed.String(); got != "detailed" {
		t.Errorf("String() = %q, want %q", got, "detailed")
	}
	if got := Verbosity(42).String(); got != "verbosity(42)" {
		t.Errorf("String() = %q, want %q", got, "verbosity(42)")
	}
}

func TestNewRespectsThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, VerbosityMinimal)

	log.Info().Msg("routine progress")
	log.Warn().Msg("something odd")

	out := buf.String()
	if strings.Contains(out, "routine progress") {
		t.Error("info message emitted below the configured threshold")
	}
	if !strings.Contains(out, "something odd") {
		t.Error("warn message suppressed at minimal verbosity")
	}
}

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("phase", "staging").Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"phase":"staging"`) {
		t.Errorf("expected phase field in output, got: %s", output)
	}
}

func TestInit_Console(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console test")

	if strings.Contains(buf.String(), `"level"`) {
		t.Errorf("expected console format, got JSON: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	original := GetLevel()
	defer SetLevel(original)
	SetLevel(zerolog.TraceLevel)

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"debug", func() { Debug().Msg("m") }, `"level":"debug"`},
		{"info", func() { Info().Msg("m") }, `"level":"info"`},
		{"warn", func() { Warn().Msg("m") }, `"level":"warn"`},
		{"error", func() { Error().Msg("m") }, `"level":"error"`},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.log()
		if !strings.Contains(buf.String(), tt.level) {
			t.Errorf("%s: expected %s in %s", tt.name, tt.level, buf.String())
		}
	}
}

func TestSetLevel_FiltersEvents(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	original := GetLevel()
	defer SetLevel(original)

	SetLevel(zerolog.WarnLevel)
	Info().Msg("dropped")
	Warn().Err(errTest("header mismatch")).Msg("load failed")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info event emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "header mismatch") {
		t.Errorf("expected error text in output: %s", out)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

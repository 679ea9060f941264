// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bytes"
	"strings"
	"testing"
)

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \r\n", true},
		{"n\n", false},
		{"\n", false},
		{"yep\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}
			got, err := c.Confirm("Drop tables?")
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Drop tables? [y/N]") {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

func TestAlways(t *testing.T) {
	for _, v := range []bool{true, false} {
		got, err := Always(v).Confirm("anything")
		if err != nil || got != v {
			t.Errorf("Always(%v).Confirm() = %v, %v", v, got, err)
		}
	}
}

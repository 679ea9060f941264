// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer approves destructive operations.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// Always is a Confirmer with a fixed answer.
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(string) (bool, error) {
	return bool(a), nil
}

// PromptConfirmer asks on Out and reads one line from In. Only "y" or
// "yes" (any case) confirms; EOF declines.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints prompt and reads the answer.
func (p PromptConfirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}
	answer, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

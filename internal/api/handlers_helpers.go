// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/mediabridge/internal/validation"
)

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// getIntParam parses an integer query parameter. ok is false when the
// value is present but not an integer.
func getIntParam(r *http.Request, name string, defaultValue int) (value int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// validateRequest writes a 400 and returns false when v fails validation.
func validateRequest(rw *ResponseWriter, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	rw.ValidationError(verr.Error(), verr.Details())
	return false
}

// parseLimit reads ?limit= for the list endpoints.
func parseLimit(rw *ResponseWriter, r *http.Request) (int, bool) {
	limit, ok := getIntParam(r, "limit", defaultListLimit)
	if !ok {
		rw.BadRequest("limit must be an integer")
		return 0, false
	}
	if !validateRequest(rw, &ListRequest{Limit: limit}) {
		return 0, false
	}
	return limit, true
}

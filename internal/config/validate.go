// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package config

import (
	"fmt"

	"github.com/tomtom215/mediabridge/internal/validation"
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Recommend.LargeMovieID <= 1 {
		return fmt.Errorf("recommend.large_movie_id must leave at least one revealed movie, got %d", c.Recommend.LargeMovieID)
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled")
	}
	return nil
}

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the database ping of a health check.
const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string  `json:"status"` // healthy or degraded
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health reports database connectivity. It always answers 200 so load
// balancers can tell a degraded process from a dead one.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

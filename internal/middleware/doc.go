// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

/*
Package middleware provides the infrastructure middleware of the HTTP API.

Components:

  - RequestID: X-Request-ID propagation with request and correlation IDs in
    the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality
  - Compression: gzip response bodies for clients that accept it

All three are func(http.Handler) http.Handler and compose with chi's r.Use:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

CORS and rate limiting come from go-chi/cors and go-chi/httprate and are
configured in the api package.
*/
package middleware

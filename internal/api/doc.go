// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

/*
Package api provides the read-only HTTP API over a loaded database.

Routes (all under /api/v1 except /metrics):

  - GET  /health              database connectivity and uptime
  - GET  /movie/search?q=     case-insensitive title substring, first 10 by ID
  - GET  /movie/{id}          one title
  - GET  /movies/popular      popular_movie reporting table, most rated first
  - GET  /users/prolific      prolific_user reporting table
  - POST /recommend           {"liked":[ids]} to recommended titles
  - GET  /metrics             Prometheus exposition

Every JSON body uses the APIResponse envelope:

	{"success":true,"data":...,"meta":{"request_id":"...","timestamp":"..."}}
	{"success":false,"error":{"code":"NOT_FOUND","message":"..."},"meta":{...}}

Middleware, outermost first: request ID, real IP, panic recovery, CORS,
request logging, then Prometheus metrics, gzip and rate limiting on the
/api/v1 routes.

Usage:

	handler := api.NewHandler(db, engine, &cfg.Server, version)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Server))
	srv := &http.Server{Addr: addr, Handler: router.Setup()}

Recommendations train a model per request, so POST /recommend is slow and
bounded by server.recommend_timeout before training starts.
*/
package api

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

/*
Package supervisor runs the long-lived services of `mediabridge serve` under
a suture v4 supervisor tree.

	RootSupervisor ("mediabridge")
	├── DataSupervisor ("data-layer")
	│   └── StatsService (table row gauges)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with suture's backoff; a failure in the data
layer does not restart the HTTP server. Supervisor events are logged through
sutureslog onto the zerolog bridge from the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewStatsService(db, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

/*
Package services provides suture.Service wrappers for the serve process.

Each wrapper implements suture's Serve(ctx) error and fmt.Stringer:

  - HTTPServerService turns ListenAndServe into a context-aware Serve with
    graceful Shutdown on cancellation.
  - StatsService refreshes the database_table_rows gauges on an interval.
*/
package services

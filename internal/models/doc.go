// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

/*
Package models defines the data structures shared by the ETL, the database
layer, the recommendation engine and the HTTP API.

Key types:

  - MovieID: a Netflix movie identifier. It is stored unpadded; Padded gives
    the seven-digit form used in rating file names.
  - MovieTitle, Rating: rows of the movie_title and rating tables.
  - PopularMovie, ProlificUser: rows of the reporting tables.
  - TableCounts: row counts reported by `mediabridge status`.
  - MovieSet: an unordered set of movie IDs, the result type of a
    recommendation.

JSON tags follow the API's snake_case convention.
*/
package models

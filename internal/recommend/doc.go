// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package recommend answers cold-start questions with a factorization
// model trained per request.
//
// # Flow
//
// Every call builds a fresh interaction matrix from the store, trains a
// fresh model and thresholds its predictions. Nothing is kept between
// calls apart from optional snapshots written to recommend.model_dir.
//
//   - Recommend simulates a partially known user: the subject's ratings of
//     movies at or above largeMovieID are blinded before training, then
//     movies above largeMovieID are scored.
//   - RecommendForLiked answers "I liked these": the matrix holds users who
//     rated every liked movie highly, plus a synthetic user who liked only
//     those movies.
//
// # Output
//
// Results are sets, not rankings. A movie is admitted when its score
// exceeds threshold_ratio times the best score. Training is randomized,
// so movies scoring close to the threshold may come and go between runs.
//
// # Usage
//
//	engine, err := recommend.NewEngine(db, &cfg.Recommend)
//	ids, err := engine.Recommend(ctx, 800, 9770)
//	for _, id := range ids.Sorted() {
//	    title, _ := engine.GetTitle(ctx, id)
//	}
package recommend

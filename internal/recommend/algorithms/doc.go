// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package algorithms implements the factorization models behind the
// cold-start engine.
//
// Every model implements Trainable: it is fitted on a frozen COO
// interaction matrix whose values are normalized ratings in [-1, 1]
// (positive for liked, negative for disliked) and then queried by dense
// row and column index. Index mapping to external IDs belongs to the
// caller.
//
// # Models
//
//   - Logistic: logistic-loss factorization with item biases, trained by
//     SGD. Each stored entry is a binary label (liked or not) weighted by
//     its magnitude. Seeded initialization and shuffling.
//   - ALS: implicit-feedback alternating least squares (Hu, Koren,
//     Volinsky 2008). Preference is 1 for liked entries and 0 otherwise;
//     confidence grows with the magnitude. Deterministic initialization.
//
// # Thread Safety
//
// Models are safe for concurrent use. Fit holds an exclusive lock and
// Predict a shared one.
package algorithms

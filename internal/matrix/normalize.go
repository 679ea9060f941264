// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package matrix

// Normalize maps a star rating to (r-3)/2: 1,2,4,5 become -1,-0.5,0.5,1.
// A neutral 3 is reported with keep=false and must not enter the matrix.
func Normalize(rating int) (value float64, keep bool, err error) {
	if rating < 1 || rating > 5 {
		return 0, false, &RatingRangeError{Rating: rating}
	}
	if rating == 3 {
		return 0, false, nil
	}
	return float64(rating-3) / 2, true, nil
}

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package matrix

import "fmt"

// IdentifierIndex maps external IDs to dense zero-based indices in the
// order they are first added, and back. Both matrix axes use it.
type IdentifierIndex[K comparable] struct {
	toIndex map[K]int
	ids     []K
	frozen  bool
}

// NewIdentifierIndex returns an empty index sized for capacity IDs.
func NewIdentifierIndex[K comparable](capacity int) *IdentifierIndex[K] {
	if capacity < 0 {
		capacity = 0
	}
	return &IdentifierIndex[K]{
		toIndex: make(map[K]int, capacity),
		ids:     make([]K, 0, capacity),
	}
}

// Add returns the index of id, assigning the next one if id is new.
func (ix *IdentifierIndex[K]) Add(id K) (int, error) {
	if i, ok := ix.toIndex[id]; ok {
		return i, nil
	}
	if ix.frozen {
		return -1, fmt.Errorf("%w: %v", ErrIndexFrozen, id)
	}
	i := len(ix.ids)
	ix.toIndex[id] = i
	ix.ids = append(ix.ids, id)
	return i, nil
}

// Lookup returns the index of id.
func (ix *IdentifierIndex[K]) Lookup(id K) (int, bool) {
	i, ok := ix.toIndex[id]
	return i, ok
}

// ID returns the external ID at index i.
func (ix *IdentifierIndex[K]) ID(i int) (K, bool) {
	if i < 0 || i >= len(ix.ids) {
		var zero K
		return zero, false
	}
	return ix.ids[i], true
}

// Len is the number of mapped IDs.
func (ix *IdentifierIndex[K]) Len() int {
	return len(ix.ids)
}

// IDs returns a copy of the IDs in index order.
func (ix *IdentifierIndex[K]) IDs() []K {
	out := make([]K, len(ix.ids))
	copy(out, ix.ids)
	return out
}

// Freeze makes the index read-only.
func (ix *IdentifierIndex[K]) Freeze() {
	ix.frozen = true
}

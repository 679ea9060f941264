// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package matrix

import "sort"

// COO is an immutable coordinate-list sparse matrix, sorted by row then column.
type COO struct {
	rows, cols int
	rowIdx     []int32
	colIdx     []int32
	data       []float64
}

// Entry is one stored cell.
type Entry struct {
	Row, Col int
	Value    float64
}

// Shape returns (rows, cols).
func (c *COO) Shape() (int, int) {
	return c.rows, c.cols
}

// NNZ is the number of stored entries.
func (c *COO) NNZ() int {
	return len(c.data)
}

// At returns the value at (row, col), 0 when absent.
func (c *COO) At(row, col int) float64 {
	start, end := c.rowRange(row)
	cols := c.colIdx[start:end]
	i := sort.Search(len(cols), func(i int) bool { return int(cols[i]) >= col })
	if i < len(cols) && int(cols[i]) == col {
		return c.data[start+i]
	}
	return 0
}

// Entry returns the i-th stored entry in row-major order.
func (c *COO) Entry(i int) Entry {
	return Entry{Row: int(c.rowIdx[i]), Col: int(c.colIdx[i]), Value: c.data[i]}
}

// Row returns the stored entries of one row.
func (c *COO) Row(row int) []Entry {
	start, end := c.rowRange(row)
	out := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, c.Entry(i))
	}
	return out
}

// Each calls fn for every stored entry in row-major order.
func (c *COO) Each(fn func(Entry)) {
	for i := range c.data {
		fn(c.Entry(i))
	}
}

func (c *COO) rowRange(row int) (int, int) {
	r := int32(row)
	start := sort.Search(len(c.rowIdx), func(i int) bool { return c.rowIdx[i] >= r })
	end := sort.Search(len(c.rowIdx), func(i int) bool { return c.rowIdx[i] > r })
	return start, end
}

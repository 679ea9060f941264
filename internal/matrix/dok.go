// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package matrix

import (
	"fmt"
	"sort"
)

type cell struct {
	row, col int32
}

// DOK is a mutable dictionary-of-keys sparse matrix with a fixed shape.
// Only non-zero values are stored.
type DOK struct {
	rows, cols int
	data       map[cell]float64
}

// NewDOK allocates an empty rows x cols matrix.
func NewDOK(rows, cols int) (*DOK, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid matrix shape %dx%d", rows, cols)
	}
	return &DOK{rows: rows, cols: cols, data: make(map[cell]float64)}, nil
}

// Shape returns (rows, cols).
func (m *DOK) Shape() (int, int) {
	return m.rows, m.cols
}

// NNZ is the number of stored entries.
func (m *DOK) NNZ() int {
	return len(m.data)
}

func (m *DOK) check(row, col int) error {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return &BoundsError{Row: row, Col: col, Rows: m.rows, Cols: m.cols}
	}
	return nil
}

// Set stores v at (row, col). Setting zero removes the entry.
func (m *DOK) Set(row, col int, v float64) error {
	if err := m.check(row, col); err != nil {
		return err
	}
	k := cell{int32(row), int32(col)}
	if v == 0 {
		delete(m.data, k)
		return nil
	}
	m.data[k] = v
	return nil
}

// DeleteRowIf removes the entries of row whose column satisfies pred and
// returns how many were removed.
func (m *DOK) DeleteRowIf(row int, pred func(col int) bool) int {
	removed := 0
	for k := range m.data {
		if int(k.row) == row && pred(int(k.col)) {
			delete(m.data, k)
			removed++
		}
	}
	return removed
}

// ToCOO returns an immutable row-major copy.
func (m *DOK) ToCOO() *COO {
	keys := make([]cell, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	c := &COO{
		rows:   m.rows,
		cols:   m.cols,
		rowIdx: make([]int32, len(keys)),
		colIdx: make([]int32, len(keys)),
		data:   make([]float64, len(keys)),
	}
	for i, k := range keys {
		c.rowIdx[i] = k.row
		c.colIdx[i] = k.col
		c.data[i] = m.data[k]
	}
	return c
}

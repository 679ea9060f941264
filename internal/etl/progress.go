// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const progressKey = "etl:netflix:progress"

// ProgressTracker persists the state of the latest ETL run.
type ProgressTracker interface {
	Save(ctx context.Context, stats *Stats) error

	// Load returns nil, nil when nothing was saved.
	Load(ctx context.Context) (*Stats, error)

	Clear(ctx context.Context) error
}

// BadgerProgress implements ProgressTracker on BadgerDB so `status` can
// report a run after the loading process has exited.
type BadgerProgress struct {
	db *badger.DB
}

// NewBadgerProgress wraps an open BadgerDB.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// OpenBadgerProgress opens (creating) a BadgerDB in dir. The caller closes
// the returned DB.
func OpenBadgerProgress(dir string) (*BadgerProgress, *badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open progress store %s: %w", dir, err)
	}
	return NewBadgerProgress(db), db, nil
}

// Save persists stats.
func (p *BadgerProgress) Save(_ context.Context, stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey), data)
	})
}

// Load retrieves the last saved stats.
func (p *BadgerProgress) Load(_ context.Context) (*Stats, error) {
	var stats Stats
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if stats.StartTime.IsZero() {
		return nil, nil
	}
	return &stats, nil
}

// Clear removes saved progress.
func (p *BadgerProgress) Clear(_ context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InMemoryProgress keeps progress for the life of the process.
type InMemoryProgress struct {
	mu    sync.Mutex
	stats *Stats
	saves int
}

// NewInMemoryProgress creates an empty tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of stats.
func (p *InMemoryProgress) Save(_ context.Context, stats *Stats) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = stats.clone()
	p.saves++
	return nil
}

// Load returns a copy of the stored stats.
func (p *InMemoryProgress) Load(_ context.Context) (*Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil, nil
	}
	return p.stats.clone(), nil
}

// Clear removes the stored stats.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = nil
	return nil
}

// Saves reports how many times Save was called.
func (p *InMemoryProgress) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

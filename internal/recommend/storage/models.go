// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package storage persists trained factorization models.
//
// A snapshot is a gob-encoded storedFile holding metadata and the
// gzip-compressed gob encoding of the model state. The SHA-256 of the
// uncompressed state is checked on load. Files are named
// {name}_v{version}.gob.gz and are written to a temporary name first, so a
// crash never leaves a truncated snapshot under a real version.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

const snapshotSuffix = ".gob.gz"

// ErrModelNotFound is returned by Load when no snapshot exists.
var ErrModelNotFound = errors.New("model snapshot not found")

// ModelMetadata describes a stored snapshot.
type ModelMetadata struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// Training matrix shape.
	UserCount        int `json:"user_count"`
	ItemCount        int `json:"item_count"`
	InteractionCount int `json:"interaction_count"`

	Epochs    int `json:"epochs"`
	LatentDim int `json:"latent_dim"`

	// TrainingKey identifies the training input and settings; a snapshot
	// with the caller's key can stand in for a fresh Fit.
	TrainingKey string `json:"training_key,omitempty"`

	// Checksum is the SHA-256 of the uncompressed state.
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// FactorModelState is the serializable state shared by the factorization
// algorithms. ItemBias is empty for models without biases.
type FactorModelState struct {
	UserFactors [][]float64
	ItemFactors [][]float64
	ItemBias    []float64
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages snapshot files in one directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per model name
	versions map[string]int
}

// NewStore opens baseDir, creating it if needed, and indexes the
// snapshots already there.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	all, err := s.scan()
	if err != nil {
		return nil, fmt.Errorf("scan model directory: %w", err)
	}
	for name, versions := range all {
		s.versions[name] = versions[0]
	}
	return s, nil
}

// scan returns every version found per name, newest first.
func (s *Store) scan() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	found := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		found[name] = append(found[name], version)
	}
	for _, versions := range found {
		sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	}
	return found, nil
}

// parseModelFilename splits "logistic_v12.gob.gz" into ("logistic", 12).
func parseModelFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, snapshotSuffix)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[i+2:])
	if err != nil || version <= 0 {
		return "", 0, false
	}
	return base[:i], version, true
}

// NextVersion returns the version a new snapshot of name should use.
func (s *Store) NextVersion(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[name] + 1
}

// LatestVersion returns the newest stored version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[name]
	return v, ok
}

// Save writes data as version of name.
//
//nolint:gocritic // meta is filled in and written, passing by value keeps the caller's copy intact
func (s *Store) Save(_ context.Context, name string, version int, data any, meta ModelMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()

	path := s.modelPath(name, version)
	tmp, err := os.CreateTemp(s.baseDir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish model file: %w", err)
	}

	if version > s.versions[name] {
		s.versions[name] = version
	}
	return nil
}

// Load decodes a snapshot into target. Version 0 means the latest.
func (s *Store) Load(_ context.Context, name string, version int, target any) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		latest, ok := s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		version = latest
	}

	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = zr.Close() }()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed model: %w", err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s v%d: expected %s, got %s", name, version, sf.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &sf.Metadata, nil
}

// FindVersion returns the newest stored version of name whose metadata
// satisfies match, or ErrModelNotFound. Unreadable files are skipped.
func (s *Store) FindVersion(_ context.Context, name string, match func(*ModelMetadata) bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.scan()
	if err != nil {
		return 0, fmt.Errorf("read model directory: %w", err)
	}
	for _, version := range all[name] {
		sf, err := s.readFile(name, version)
		if err != nil {
			continue
		}
		if match(&sf.Metadata) {
			return version, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrModelNotFound, name)
}

func (s *Store) readFile(name string, version int) (*storedFile, error) {
	f, err := os.Open(s.modelPath(name, version))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// ListModels returns metadata of the latest snapshot of every model,
// sorted by name. Unreadable files are skipped.
func (s *Store) ListModels(_ context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ModelMetadata, 0, len(s.versions))
	for name, version := range s.versions {
		sf, err := s.readFile(name, version)
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes one snapshot.
func (s *Store) Delete(_ context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if s.versions[name] != version {
		return nil
	}

	all, err := s.scan()
	if err != nil {
		return fmt.Errorf("read model directory: %w", err)
	}
	if versions := all[name]; len(versions) > 0 {
		s.versions[name] = versions[0]
	} else {
		delete(s.versions, name)
	}
	return nil
}

// Prune keeps the newest keep snapshots of name and removes the rest.
func (s *Store) Prune(_ context.Context, name string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	all, err := s.scan()
	if err != nil {
		return 0, fmt.Errorf("read model directory: %w", err)
	}

	removed := 0
	versions := all[name]
	for i := keep; i < len(versions); i++ {
		if err := os.Remove(s.modelPath(name, versions[i])); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("prune %s v%d: %w", name, versions[i], err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, snapshotSuffix))
}

// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package database

import (
	"context"
	"fmt"
)

// Table names.
const (
	TableMovieTitle   = "movie_title"
	TableRating       = "rating"
	TablePopularMovie = "popular_movie"
	TableProlificUser = "prolific_user"
	TableRatingCSV    = "rating_csv"
	ViewRating        = "rating_v"
)

// Movie IDs are canonical unpadded decimal text; every ORDER BY on them
// casts to INTEGER so ordering is numeric.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movie_title (
		id TEXT PRIMARY KEY,
		year SMALLINT,
		title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rating (
		user_id INTEGER NOT NULL,
		movie_id TEXT NOT NULL REFERENCES movie_title(id),
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		PRIMARY KEY (movie_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS popular_movie (
		id TEXT PRIMARY KEY,
		"count" INTEGER NOT NULL,
		year SMALLINT,
		title TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS prolific_user (
		id INTEGER PRIMARY KEY,
		"count" INTEGER NOT NULL,
		avg_rating REAL
	)`,
	`CREATE OR REPLACE VIEW rating_v AS
		SELECT r.user_id, r.rating, mt.*
		FROM rating r
		JOIN movie_title mt ON r.movie_id = mt.id`,
}

// EnsureSchema creates missing tables and the rating_v view.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropAll drops every MediaBridge table and view. Dependents go first so
// the rating -> movie_title foreign key never blocks a drop.
func (db *DB) DropAll(ctx context.Context) error {
	stmts := []string{
		"DROP VIEW IF EXISTS " + ViewRating,
		"DROP TABLE IF EXISTS " + TableRatingCSV,
		"DROP TABLE IF EXISTS " + TablePopularMovie,
		"DROP TABLE IF EXISTS " + TableProlificUser,
		"DROP TABLE IF EXISTS " + TableRating,
		"DROP TABLE IF EXISTS " + TableMovieTitle,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
	}
	return nil
}

// Recreate drops and recreates the schema, leaving every table empty.
func (db *DB) Recreate(ctx context.Context) error {
	if err := db.DropAll(ctx); err != nil {
		return err
	}
	return db.EnsureSchema(ctx)
}

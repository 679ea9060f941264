// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/mediabridge/internal/models"
)

// InsertMovieTitles bulk-inserts titles in one transaction.
func (db *DB) InsertMovieTitles(ctx context.Context, titles []models.MovieTitle) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO movie_title (id, year, title) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare title insert: %w", err)
	}
	defer closeWithLog(stmt, "title insert statement")

	for _, mt := range titles {
		var year any
		if mt.Year != nil {
			year = *mt.Year
		}
		if _, err = stmt.ExecContext(ctx, mt.ID.String(), year, mt.Title); err != nil {
			return fmt.Errorf("failed to insert movie %s: %w", mt.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit titles: %w", err)
	}
	return nil
}

// GetMovieTitle looks up one title. Unknown IDs return ErrMovieNotFound.
func (db *DB) GetMovieTitle(ctx context.Context, id models.MovieID) (*models.MovieTitle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT id, year, title FROM movie_title WHERE id = ?`, id.String())
	mt, err := scanMovieTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMovieNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %s: %w", id, err)
	}
	return mt, nil
}

// SearchMovieTitles does a case-insensitive substring match on title.
func (db *DB) SearchMovieTitles(ctx context.Context, query string, limit int) ([]models.MovieTitle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	pattern := "%" + escapeLike(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, year, title FROM movie_title
		WHERE LOWER(title) LIKE LOWER(?) ESCAPE '\'
		ORDER BY CAST(id AS INTEGER)
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search titles: %w", err)
	}
	defer closeWithLog(rows, "search rows")

	results := make([]models.MovieTitle, 0, limit)
	for rows.Next() {
		mt, err := scanMovieTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		results = append(results, *mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}
	return results, nil
}

// MovieIDs returns every title ID in ascending numeric order.
func (db *DB) MovieIDs(ctx context.Context) ([]models.MovieID, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM movie_title ORDER BY CAST(id AS INTEGER)`)
	if err != nil {
		return nil, fmt.Errorf("failed to list movie ids: %w", err)
	}
	defer closeWithLog(rows, "movie id rows")

	var ids []models.MovieID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan movie id: %w", err)
		}
		id, err := models.ParseMovieID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movie ids: %w", err)
	}
	return ids, nil
}

// MaxMovieID is the numerically largest title ID, or 0 with no titles.
func (db *DB) MaxMovieID(ctx context.Context) (models.MovieID, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var maxID sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, `SELECT MAX(CAST(id AS INTEGER)) FROM movie_title`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to get max movie id: %w", err)
	}
	return models.MovieID(maxID.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovieTitle(row rowScanner) (*models.MovieTitle, error) {
	var (
		raw   string
		year  sql.NullInt16
		title string
	)
	if err := row.Scan(&raw, &year, &title); err != nil {
		return nil, err
	}
	id, err := models.ParseMovieID(raw)
	if err != nil {
		return nil, err
	}
	mt := &models.MovieTitle{ID: id, Title: title}
	if year.Valid {
		y := year.Int16
		mt.Year = &y
	}
	return mt, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

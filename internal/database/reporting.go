// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/models"
)

// reportingQueries are regenerated wholesale; never updated incrementally.
var reportingQueries = []struct {
	table  string
	insert string
}{
	{
		table: TablePopularMovie,
		insert: `INSERT INTO popular_movie (id, "count", year, title)
			SELECT id, COUNT(*) AS cnt, MAX(year), MAX(title)
			FROM rating_v
			GROUP BY id
			ORDER BY cnt DESC, CAST(id AS INTEGER)`,
	},
	{
		table: TableProlificUser,
		insert: `INSERT INTO prolific_user (id, "count", avg_rating)
			SELECT user_id, COUNT(*) AS cnt, ROUND(AVG(rating), 3)
			FROM rating
			GROUP BY user_id
			ORDER BY cnt DESC, user_id`,
	},
}

// RegenerateReporting recreates rating_v and rebuilds each reporting table
// in its own delete-then-insert transaction.
func (db *DB) RegenerateReporting(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaStatements[len(schemaStatements)-1]); err != nil {
		return fmt.Errorf("failed to recreate %s: %w", ViewRating, err)
	}

	for _, q := range reportingQueries {
		start := time.Now()
		n, err := db.regenerateTable(ctx, q.table, q.insert)
		if err != nil {
			return err
		}
		logging.Info().
			Str("table", q.table).
			Int64("rows", n).
			Dur("duration", time.Since(start)).
			Msg("Reporting table regenerated")
	}
	return nil
}

func (db *DB) regenerateTable(ctx context.Context, table, insert string) (n int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	res, err := tx.ExecContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("failed to populate %s: %w", table, err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to read %s row count: %w", table, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return n, nil
}

// PopularMovies returns the most-rated movies first.
func (db *DB) PopularMovies(ctx context.Context, limit int) ([]models.PopularMovie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, "count", year, title FROM popular_movie
		ORDER BY "count" DESC, CAST(id AS INTEGER)
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular movies: %w", err)
	}
	defer closeWithLog(rows, "popular movie rows")

	var out []models.PopularMovie
	for rows.Next() {
		var (
			pm    models.PopularMovie
			raw   string
			year  sql.NullInt16
			title sql.NullString
		)
		if err := rows.Scan(&raw, &pm.Count, &year, &title); err != nil {
			return nil, fmt.Errorf("failed to scan popular movie: %w", err)
		}
		if pm.ID, err = models.ParseMovieID(raw); err != nil {
			return nil, err
		}
		if year.Valid {
			y := year.Int16
			pm.Year = &y
		}
		pm.Title = title.String
		out = append(out, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate popular movies: %w", err)
	}
	return out, nil
}

// ProlificUsers returns users with the most ratings first.
func (db *DB) ProlificUsers(ctx context.Context, limit int) ([]models.ProlificUser, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, "count", avg_rating FROM prolific_user
		ORDER BY "count" DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prolific users: %w", err)
	}
	defer closeWithLog(rows, "prolific user rows")

	var out []models.ProlificUser
	for rows.Next() {
		var (
			pu  models.ProlificUser
			avg sql.NullFloat64
		)
		if err := rows.Scan(&pu.ID, &pu.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan prolific user: %w", err)
		}
		pu.AvgRating = avg.Float64
		out = append(out, pu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prolific users: %w", err)
	}
	return out, nil
}

// Counts returns row counts for the core and reporting tables.
func (db *DB) Counts(ctx context.Context) (models.TableCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c models.TableCounts
	targets := []struct {
		table string
		dest  *int64
	}{
		{TableMovieTitle, &c.MovieTitles},
		{TableRating, &c.Ratings},
		{TablePopularMovie, &c.PopularMovies},
		{TableProlificUser, &c.ProlificUsers},
	}
	for _, t := range targets {
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dest); err != nil {
			return c, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return c, nil
}

// CountRows counts one table. Use the Table* constants only.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

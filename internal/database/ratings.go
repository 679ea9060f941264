// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/models"
)

// RatingFilter narrows the ratings read for matrix construction.
// Zero values mean "no bound".
type RatingFilter struct {
	MaxUserID int
	UserIDs   []int
}

func (f RatingFilter) where() (string, []any) {
	clauses := []string{"rating <> 3"}
	var args []any
	if f.MaxUserID > 0 {
		clauses = append(clauses, "user_id <= ?")
		args = append(args, f.MaxUserID)
	}
	if len(f.UserIDs) > 0 {
		clauses = append(clauses, "user_id IN ("+placeholders(len(f.UserIDs))+")")
		for _, id := range f.UserIDs {
			args = append(args, id)
		}
	}
	return strings.Join(clauses, " AND "), args
}

// CountUsers counts distinct users with at least one non-neutral rating
// matching the filter.
func (db *DB) CountUsers(ctx context.Context, f RatingFilter) (int, error) {
	where, args := f.where()
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(DISTINCT user_id) FROM rating WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(n), nil
}

// EachRating streams non-neutral ratings ordered by user then numeric movie ID.
// fn must not use the database: the single pooled connection is busy.
func (db *DB) EachRating(ctx context.Context, f RatingFilter, fn func(models.Rating) error) error {
	where, args := f.where()
	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id, rating FROM rating WHERE "+where+
			" ORDER BY user_id, CAST(movie_id AS INTEGER)", args...)
	if err != nil {
		return fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeWithLog(rows, "rating rows")

	for rows.Next() {
		var (
			r   models.Rating
			raw string
		)
		if err := rows.Scan(&r.UserID, &raw, &r.Rating); err != nil {
			return fmt.Errorf("failed to scan rating: %w", err)
		}
		if r.MovieID, err = models.ParseMovieID(raw); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return nil
}

// UsersWhoLiked returns up to limit users, lowest ID first, who rated every
// movie in liked at minRating or above.
func (db *DB) UsersWhoLiked(ctx context.Context, liked []models.MovieID, minRating, limit int) ([]int, error) {
	if len(liked) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(liked)+3)
	for _, id := range liked {
		args = append(args, id.String())
	}
	args = append(args, minRating, len(liked), limit)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id FROM rating
		WHERE movie_id IN (`+placeholders(len(liked))+`) AND rating >= ?
		GROUP BY user_id
		HAVING COUNT(*) = ?
		ORDER BY user_id
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users who liked: %w", err)
	}
	defer closeWithLog(rows, "liked user rows")

	var users []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreateStagingTable drops and recreates the constraint-free rating_csv
// table. Its columns follow the staging CSV order, not the rating table.
func (db *DB) CreateStagingTable(ctx context.Context) error {
	stmts := []string{
		"DROP TABLE IF EXISTS " + TableRatingCSV,
		`CREATE TABLE rating_csv (user_id INTEGER, rating INTEGER, movie_id TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}
	}
	return nil
}

// CopyIntoStaging bulk-imports a staging CSV (header row, optionally .gz)
// through DuckDB's native CSV reader and returns the imported row count.
func (db *DB) CopyIntoStaging(ctx context.Context, csvPath string) (int64, error) {
	query := fmt.Sprintf("COPY %s FROM '%s' (FORMAT CSV, HEADER true)",
		TableRatingCSV, strings.ReplaceAll(csvPath, "'", "''"))
	res, err := db.conn.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to copy %s into staging: %w", csvPath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read copied row count: %w", err)
	}
	return n, nil
}

// PromoteStaging replaces the rating table contents with the staging rows,
// clustered by user then movie, and drops the staging table, all in one
// transaction.
func (db *DB) PromoteStaging(ctx context.Context) (inserted int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+TableRating); err != nil {
		return 0, fmt.Errorf("failed to truncate rating: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO rating (user_id, movie_id, rating)
		SELECT user_id, movie_id, rating FROM rating_csv
		ORDER BY user_id, CAST(movie_id AS INTEGER), rating`)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ratings: %w", err)
	}
	if inserted, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to read inserted row count: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE "+TableRatingCSV); err != nil {
		return 0, fmt.Errorf("failed to drop staging table: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ratings: %w", err)
	}

	logging.Info().Int64("rows", inserted).Msg("Ratings promoted from staging")
	return inserted, nil
}

// LoadRatingsCSV runs the whole insert step: fresh staging table, COPY,
// promote, then CHECKPOINT to compact.
func (db *DB) LoadRatingsCSV(ctx context.Context, csvPath string) (int64, error) {
	if err := db.CreateStagingTable(ctx); err != nil {
		return 0, err
	}
	copied, err := db.CopyIntoStaging(ctx, csvPath)
	if err != nil {
		return 0, err
	}
	logging.Debug().Int64("rows", copied).Str("path", csvPath).Msg("Staging table populated")

	inserted, err := db.PromoteStaging(ctx)
	if err != nil {
		return 0, err
	}
	if err := db.Checkpoint(ctx); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

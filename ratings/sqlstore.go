// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratings

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore keeps ratings in the rating table. Queries are written to run
// unchanged on PostgreSQL and SQLite.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Upsert inserts the rating or overwrites the rater's previous value in a
// single statement. The primary key on (bucket_id, card_position, rater_id)
// makes concurrent submissions from the same rater collapse into one row.
func (s *SQLStore) Upsert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rating (bucket_id, card_position, rater_id, value, ip_hash, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (bucket_id, card_position, rater_id) DO UPDATE
		SET value = excluded.value,
		    ip_hash = excluded.ip_hash,
		    user_agent = excluded.user_agent,
		    updated_at = excluded.updated_at
	`, r.BucketID, r.Position, r.RaterID, r.Value, r.IPHash, r.UserAgent, r.At)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (s *SQLStore) Aggregate(ctx context.Context, bucketID string, position int) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0), COUNT(*)
		FROM rating
		WHERE bucket_id = $1 AND card_position = $2
	`, bucketID, position).Scan(&t.Sum, &t.Count)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return t, nil
}

func (s *SQLStore) AggregateBucket(ctx context.Context, bucketID string) (map[int]Totals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_position, SUM(value), COUNT(*)
		FROM rating
		WHERE bucket_id = $1
		GROUP BY card_position
	`, bucketID)
	if err != nil {
		return nil, fmt.Errorf("aggregate bucket ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[int]Totals)
	for rows.Next() {
		var pos int
		var t Totals
		if err := rows.Scan(&pos, &t.Sum, &t.Count); err != nil {
			return nil, fmt.Errorf("scan bucket ratings: %w", err)
		}
		out[pos] = t
	}
	return out, rows.Err()
}

func (s *SQLStore) Lookup(ctx context.Context, bucketID string, position int, raterID string) (int, bool, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM rating
		WHERE bucket_id = $1 AND card_position = $2 AND rater_id = $3
	`, bucketID, position, raterID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup rating: %w", err)
	}
	return v, true, nil
}

// Values returns every stored value for a card, unordered. Used for
// distribution statistics.
func (s *SQLStore) Values(ctx context.Context, bucketID string) (map[int][]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_position, value FROM rating
		WHERE bucket_id = $1
		ORDER BY card_position
	`, bucketID)
	if err != nil {
		return nil, fmt.Errorf("query rating values: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]int)
	for rows.Next() {
		var pos, v int
		if err := rows.Scan(&pos, &v); err != nil {
			return nil, fmt.Errorf("scan rating value: %w", err)
		}
		out[pos] = append(out[pos], v)
	}
	return out, rows.Err()
}

// ExportRow is one rating as written by the export command.
type ExportRow struct {
	BucketID  string    `parquet:"bucket_id"`
	Position  int64     `parquet:"card_position"`
	RaterID   string    `parquet:"rater_id"`
	Value     int64     `parquet:"value"`
	UpdatedAt time.Time `parquet:"updated_at,timestamp"`
}

// All returns every rating ordered by bucket and card.
func (s *SQLStore) All(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket_id, card_position, rater_id, value, updated_at
		FROM rating
		ORDER BY bucket_id, card_position, rater_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var r ExportRow
		if err := rows.Scan(&r.BucketID, &r.Position, &r.RaterID, &r.Value, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Clear deletes every rating and reports how many were removed.
func (s *SQLStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rating`)
	if err != nil {
		return 0, fmt.Errorf("clear ratings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear ratings: %w", err)
	}
	return n, nil
}

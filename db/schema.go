// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is shared between PostgreSQL and SQLite, so timestamps are always
// written by the application rather than by column defaults.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    user_token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

-- Buckets
CREATE TABLE IF NOT EXISTS bucket (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    share_slug TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bucket_owner_id ON bucket(owner_id);

-- Cards
CREATE TABLE IF NOT EXISTS card (
    bucket_id TEXT NOT NULL REFERENCES bucket(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    PRIMARY KEY (bucket_id, position)
);

-- Ratings
CREATE TABLE IF NOT EXISTS rating (
    bucket_id TEXT NOT NULL,
    card_position INTEGER NOT NULL,
    rater_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    value INTEGER NOT NULL,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (bucket_id, card_position, rater_id),
    FOREIGN KEY (bucket_id, card_position) REFERENCES card(bucket_id, position) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rating_rater_id ON rating(rater_id);
`

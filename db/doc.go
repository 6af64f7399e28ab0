// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Opening

Open selects a driver by type and pings the connection:

	conn, err := db.Open(db.TypeSQLite, "literary-wheel.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite connections get foreign_keys, busy_timeout and WAL pragmas through the
DSN and are limited to one open connection. PostgreSQL keeps a pooled
connection set.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both drivers.

# Tables

  - app_user: Display name and secret token per user
  - bucket: Named card collection with owner and share slug
  - card: Ordered cards, keyed by (bucket_id, position)
  - rating: One value per (bucket_id, card_position, rater_id)

# Relationships

	app_user 1──* bucket
	bucket   1──* card
	card     1──* rating
	app_user 1──* rating

All foreign keys use ON DELETE CASCADE. Deleting a bucket removes its cards
and every rating of those cards.
*/
package db

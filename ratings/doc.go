// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratings stores per-card ratings and keeps their running averages.

An Aggregator validates a Submission against the configured Bounds and writes
it through a Store. Each rater holds at most one rating per card: rating again
replaces the old value, so the average always reflects each rater's latest
opinion.

	agg := ratings.NewAggregator(ratings.NewSQLStore(db), ratings.DefaultBounds())
	sum, err := agg.Submit(ctx, ratings.Submission{
		BucketID: bucketID, Position: 3, RaterID: userID, Value: 4,
	})

Errors are sentinel-wrapped so handlers can map them with errors.Is:

  - ErrInvalidRatingValue: value not a whole number in bounds
  - ErrUnauthenticated: empty rater ID
  - ErrStoreUnavailable: the Store failed; the caller may retry

SQLStore is the Store backed by the rating table. Its Upsert is a single
INSERT ... ON CONFLICT statement, valid on both PostgreSQL and SQLite.
*/
package ratings

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Literary Wheel API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: registration and the caller's own buckets
  - BucketHandler: bucket and card CRUD, share links
  - RatingHandler: per-card ratings
  - StatsHandler: rating distributions and rankings
  - SpinHandler: server-side scripted spins
  - WheelHandler: live wheel sessions over a websocket

Handlers are created via constructor functions that accept *sql.DB and Config:

	bucketHandler := handlers.NewBucketHandler(db, cfg)

# Identity

POST /users returns a user_token. Requests that act on behalf of a user send
it in the X-User-Token header. Only a bucket's owner may edit or delete it.

# Buckets

	POST   /buckets               → CreateBucket (cards get positions 1..N)
	GET    /buckets               → ListBuckets
	GET    /buckets/{id}          → GetBucket (?card=N selects one card)
	GET    /s/{slug}              → GetBucketBySlug
	PATCH  /buckets/{id}          → UpdateBucket (owner only)
	DELETE /buckets/{id}          → DeleteBucket (owner only, cascades)

# Ratings

	POST /buckets/{id}/cards/{position}/rate      → RateCard
	GET  /buckets/{id}/cards/{position}/my-rating → GetMyRating
	GET  /buckets/{id}/stats                      → GetStats

A rater has at most one rating per card; rating again replaces the value.

# Wheel

	POST /buckets/{id}/spin  → Spin (replays a press/hold/release script)
	GET  /buckets/{id}/wheel → Serve (websocket)

The websocket accepts {"type":"press"}, {"type":"release"} and
{"type":"stop_time","stop_time":S}. The server sends state_init once, frame
messages while the wheel moves, and settled when it stops.
*/
package handlers

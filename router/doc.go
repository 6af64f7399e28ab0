// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Literary Wheel API.

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Users (X-User-Token identifies the caller):

	POST /users             - Register a name, returns user_token
	GET  /users/me          - Current user
	GET  /users/me/buckets  - Buckets owned by the caller

Buckets:

	POST   /buckets       - Create with cards
	GET    /buckets       - List
	GET    /buckets/{id}  - Bucket with cards and averages
	PATCH  /buckets/{id}  - Rename or edit cards (owner)
	DELETE /buckets/{id}  - Delete (owner)
	GET    /s/{slug}      - Bucket by share link

Ratings:

	POST /buckets/{id}/cards/{position}/rate
	GET  /buckets/{id}/cards/{position}/my-rating
	GET  /buckets/{id}/stats

Wheel:

	POST /buckets/{id}/spin   - Scripted spin
	GET  /buckets/{id}/wheel  - Live wheel websocket

Every API route is wrapped in middleware.WithLogging. CORS is applied by the
server around the whole mux.
*/
package router

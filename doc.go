// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Literary Wheel API server.

Literary Wheel lets people collect literary cards into buckets, spin a wheel
to pick one, and rate what they read on a 1..5 scale.

# Starting the Server

	SHARE_SLUG_SALT=... IP_HASH_SALT=... go run . serve

Or with flags:

	go run . serve -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - SHARE_SLUG_SALT (-slug-salt): Secret for share slug generation
  - IP_HASH_SALT (-ip-salt): Secret for hashing rater IPs

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): sqlite path or PostgreSQL connection string
  - LOG_LEVEL (-log-level): debug, info, warn, error
  - POLICY_FILE (-policy): YAML wheel, rating and bucket tuning

A .env file in the working directory is loaded first.

# Commands

  - serve: HTTP API and live wheel websocket
  - simulate: fairness report for the wheel
  - clear-ratings: delete every rating
  - export-ratings: write ratings to parquet

# Architecture

  - wheel: rotation physics, index resolver, spin sessions
  - ratings: rating aggregation and its SQL store
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request IDs, JSON helpers
  - models: Request/response types
  - auth: IDs, user tokens, share slugs
  - db: Connection setup and schema creation
  - cliparse: Configuration and policy parsing
  - cmd: cobra commands

See package documentation for each component.
*/
package main

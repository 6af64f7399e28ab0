// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles server configuration: flags, environment variables
and the YAML policy file.

# Configuration

	cfg, err := cliparse.ParseFlags(args)

# CLI Flags and Environment Variables

CLI flags take precedence over environment variables.

	-p          PORT             Server port (default 3318)
	-d          DATABASE_URL     Database URL or sqlite path (default literary-wheel.db)
	-t          DATABASE_TYPE    sqlite (default) or postgres
	-log-level  LOG_LEVEL        debug, info, warn, error
	-policy     POLICY_FILE      YAML policy file
	-slug-salt  SHARE_SLUG_SALT  Share slug salt (required)
	-ip-salt    IP_HASH_SALT     IP hash salt (required)

A postgres database type requires an explicit URL.

# Policy File

The policy tunes the wheel, rating bounds and bucket sizes. Missing keys keep
their defaults and unknown keys are rejected:

	wheel:
	  max_angular_velocity: 6.0
	  acceleration: 4.0
	  stop_duration_sec: 3.5
	  min_stop_duration_sec: 2
	  max_stop_duration_sec: 5
	  stop_epsilon: 0.00005
	  max_dt_ms: 250
	  snap: false
	  frame_hz: 60
	ratings:
	  min_value: 1
	  max_value: 5
	buckets:
	  min_cards: 6
	  max_cards: 24

Policy.WheelConfig and Policy.RatingBounds convert the file into the types the
wheel and ratings packages take.
*/
package cliparse

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, user tokens and hashing utilities.

# User Tokens

A user token is a random 24-byte (192-bit) secret, URL-safe base64 without
padding:

	token, err := auth.GenerateUserToken()

It is returned once when the user registers and is presented afterwards in
the X-User-Token header. ValidateUserToken checks the format only; the
handlers resolve the token to a user row.

# User Names

	name, err := auth.NormalizeUserName("  Ada ")  // "Ada"

Names are trimmed, 1 to 32 characters, and may not contain control
characters. Uniqueness is enforced by the database.

# Share Slugs

	slug := auth.GenerateShareSlug(bucketID, salt)

Slugs are base62 (alphanumeric only) and deterministic from the bucket ID and
salt.

# IDs

	id, err := auth.NewID()         // UUID for users and buckets
	rid, err := auth.GenerateID(8)  // 16 hex characters, request IDs

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns the first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - RegisterUserRequest: name
  - CreateBucketRequest: name, cards
  - UpdateBucketRequest: optional name, optional full card list
  - RateCardRequest: value
  - SpinRequest: hold_ms, stop_time, start_angle

# Response Types

  - RegisterUserResponse: user_id, name, user_token
  - CreateBucketResponse: bucket_id, share_slug, card_count
  - RateCardResponse: position, average, count
  - MyRatingResponse: position, value (null when unrated)
  - SpinResponse: index, card, final_angle, peak_velocity, frames
  - ErrorResponse: error, message

# Domain Types

  - User: display name and secret token (token never serialized)
  - Bucket, BucketWithCards, BucketSummary
  - Card: position, text fields and the card's rating average and count
  - CardStats, BucketStats: rating distribution per card

# Wheel Socket

Messages on the wheel socket use the envelope

	{"type": "...", "ts": "...", "data": {...}}

Client messages are flat: {"type":"press"}, {"type":"release"},
{"type":"stop_time","stop_time":3.2}. Server payloads are WheelInit,
WheelFrame, WheelSettled and WheelError.
*/
package models

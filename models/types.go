// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Wheel socket message types
const (
	WheelMsgPress     = "press"
	WheelMsgRelease   = "release"
	WheelMsgStopTime  = "stop_time"
	WheelMsgStateInit = "state_init"
	WheelMsgFrame     = "frame"
	WheelMsgSettled   = "settled"
	WheelMsgError     = "error"
)

// Request types

type RegisterUserRequest struct {
	Name string `json:"name"`
}

type CardInput struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Author   string `json:"author"`
	Content  string `json:"content"`
}

type CreateBucketRequest struct {
	Name  string      `json:"name"`
	Cards []CardInput `json:"cards"`
}

// Cards, when present, must list every card in position order.
type UpdateBucketRequest struct {
	Name  *string     `json:"name"`
	Cards []CardInput `json:"cards"`
}

// Value is a pointer so a missing field can be told apart from 0.
type RateCardRequest struct {
	Value *float64 `json:"value"`
}

// StopTime is in seconds; 0 uses the server default.
type SpinRequest struct {
	HoldMS     int64   `json:"hold_ms"`
	StopTime   float64 `json:"stop_time"`
	StartAngle float64 `json:"start_angle"`
}

// Response types

type RegisterUserResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	UserToken string `json:"user_token"`
}

type CreateBucketResponse struct {
	BucketID  string `json:"bucket_id"`
	ShareSlug string `json:"share_slug"`
	CardCount int    `json:"card_count"`
}

type RateCardResponse struct {
	Position int     `json:"position"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

type MyRatingResponse struct {
	Position int  `json:"position"`
	Value    *int `json:"value"`
}

type SpinResponse struct {
	Index          int     `json:"index"`
	Card           Card    `json:"card"`
	FinalAngle     float64 `json:"final_angle"`
	PeakVelocity   float64 `json:"peak_velocity"`
	Frames         int     `json:"frames"`
	SettledAfterMS int64   `json:"settled_after_ms"`
}

// Domain types

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"created_at"`
}

type Bucket struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	ShareSlug string    `json:"share_slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Card struct {
	Position int     `json:"position"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Author   string  `json:"author"`
	Content  string  `json:"content"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

type BucketWithCards struct {
	Bucket       Bucket `json:"bucket"`
	Cards        []Card `json:"cards"`
	SelectedCard *Card  `json:"selected_card,omitempty"`
}

type BucketSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerName  string    `json:"owner_name"`
	ShareSlug  string    `json:"share_slug"`
	CardCount  int       `json:"card_count"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedAgo string    `json:"updated_ago"`
}

// Stats types

type CardStats struct {
	Position int     `json:"position"`
	Title    string  `json:"title"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P10      float64 `json:"p10"`
	P90      float64 `json:"p90"`
	Count    int     `json:"count"`
	Rank     int     `json:"rank"` // 1-indexed ranking
}

type BucketStats struct {
	BucketID     string      `json:"bucket_id"`
	ComputedAt   time.Time   `json:"computed_at"`
	TotalRatings int         `json:"total_ratings"`
	Rankings     []CardStats `json:"rankings"`
}

// Wheel socket payloads

// WheelClientMessage is a message from the browser. StopTime is only read
// for "stop_time" messages.
type WheelClientMessage struct {
	Type     string  `json:"type"`
	StopTime float64 `json:"stop_time,omitempty"`
}

type WheelEnvelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

type WheelInit struct {
	BucketID    string    `json:"bucket_id"`
	CardCount   int       `json:"card_count"`
	StopTime    float64   `json:"stop_time"`
	MinStopTime float64   `json:"min_stop_time"`
	MaxStopTime float64   `json:"max_stop_time"`
	FrameHz     int       `json:"frame_hz"`
	CabinAngles []float64 `json:"cabin_angles"`
	Angle       float64   `json:"angle"`
}

type WheelFrame struct {
	Angle    float64 `json:"angle"`
	Velocity float64 `json:"velocity"`
	Phase    string  `json:"phase"`
	Pointer  int     `json:"pointer"`
}

type WheelSettled struct {
	Index int     `json:"index"`
	Angle float64 `json:"angle"`
	Card  Card    `json:"card"`
}

type WheelError struct {
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

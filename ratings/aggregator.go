// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidRatingValue = errors.New("invalid rating value")
	ErrUnauthenticated    = errors.New("rater identity required")
	ErrStoreUnavailable   = errors.New("rating store unavailable")
)

// Default rating bounds
const (
	DefaultMinValue = 1
	DefaultMaxValue = 5
)

// Bounds is the inclusive range of accepted rating values.
type Bounds struct {
	Min int
	Max int
}

func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinValue, Max: DefaultMaxValue}
}

// Summary is the running aggregate for one card.
type Summary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Totals are the raw sums a store keeps per card.
type Totals struct {
	Sum   int64
	Count int
}

// Summary converts raw totals into an average and count.
func (t Totals) Summary() Summary {
	if t.Count == 0 {
		return Summary{}
	}
	return Summary{Average: float64(t.Sum) / float64(t.Count), Count: t.Count}
}

// Record is one stored rating.
type Record struct {
	BucketID  string
	Position  int
	RaterID   string
	Value     int
	IPHash    string
	UserAgent string
	At        time.Time
}

// Store persists ratings. Upsert must be atomic and keyed by
// (BucketID, Position, RaterID); uniqueness is the store's job.
type Store interface {
	Upsert(ctx context.Context, r Record) error
	Aggregate(ctx context.Context, bucketID string, position int) (Totals, error)
	AggregateBucket(ctx context.Context, bucketID string) (map[int]Totals, error)
	Lookup(ctx context.Context, bucketID string, position int, raterID string) (int, bool, error)
}

// Submission is a rater's vote for one card.
type Submission struct {
	BucketID  string
	Position  int
	RaterID   string
	Value     int
	IPHash    string
	UserAgent string
}

// Aggregator validates submissions, writes them through a Store and reports
// the card's new average.
type Aggregator struct {
	store  Store
	bounds Bounds
	now    func() time.Time
}

func NewAggregator(store Store, bounds Bounds) *Aggregator {
	return &Aggregator{store: store, bounds: bounds, now: time.Now}
}

func (a *Aggregator) Bounds() Bounds { return a.bounds }

// Validate checks value against the configured bounds.
func (a *Aggregator) Validate(value int) error {
	if value < a.bounds.Min || value > a.bounds.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRatingValue, value, a.bounds.Min, a.bounds.Max)
	}
	return nil
}

// ParseValue accepts a JSON number only if it is a whole number in bounds.
func (a *Aggregator) ParseValue(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw != math.Trunc(raw) {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidRatingValue, raw)
	}
	if raw < math.MinInt32 || raw > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidRatingValue, raw)
	}
	v := int(raw)
	if err := a.Validate(v); err != nil {
		return 0, err
	}
	return v, nil
}

// Submit stores (or replaces) the rater's value for the card and returns the
// card's recomputed summary. Nothing is written when validation fails.
func (a *Aggregator) Submit(ctx context.Context, s Submission) (Summary, error) {
	if s.RaterID == "" {
		return Summary{}, ErrUnauthenticated
	}
	if err := a.Validate(s.Value); err != nil {
		return Summary{}, err
	}

	err := a.store.Upsert(ctx, Record{
		BucketID:  s.BucketID,
		Position:  s.Position,
		RaterID:   s.RaterID,
		Value:     s.Value,
		IPHash:    s.IPHash,
		UserAgent: s.UserAgent,
		At:        a.now().UTC(),
	})
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return a.Summary(ctx, s.BucketID, s.Position)
}

// Summary returns the current average and count for one card.
func (a *Aggregator) Summary(ctx context.Context, bucketID string, position int) (Summary, error) {
	totals, err := a.store.Aggregate(ctx, bucketID, position)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return totals.Summary(), nil
}

// Summaries returns the summary of every rated card in a bucket, keyed by
// position. Unrated cards are absent.
func (a *Aggregator) Summaries(ctx context.Context, bucketID string) (map[int]Summary, error) {
	all, err := a.store.AggregateBucket(ctx, bucketID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	out := make(map[int]Summary, len(all))
	for pos, t := range all {
		out[pos] = t.Summary()
	}
	return out, nil
}

// Lookup returns the rater's own value for a card, if any.
func (a *Aggregator) Lookup(ctx context.Context, bucketID string, position int, raterID string) (int, bool, error) {
	if raterID == "" {
		return 0, false, ErrUnauthenticated
	}
	v, ok, err := a.store.Lookup(ctx, bucketID, position, raterID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return v, ok, nil
}

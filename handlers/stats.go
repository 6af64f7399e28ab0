// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/ratings"
)

type StatsHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	store *ratings.SQLStore
}

func NewStatsHandler(db *sql.DB, cfg cliparse.Config) *StatsHandler {
	return &StatsHandler{db: db, cfg: cfg, store: ratings.NewSQLStore(db)}
}

// GetStats handles GET /buckets/{id}/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	bucketID := r.PathValue("id")
	if _, err := loadBucketByID(r.Context(), h.db, bucketID); err != nil {
		if errors.Is(err, errBucketNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Bucket not found")
			return
		}
		logError(r, "failed to load bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	stats, err := ComputeBucketStats(r.Context(), h.db, h.store, bucketID)
	if errors.Is(err, ratings.ErrStoreUnavailable) {
		writeRatingError(w, r, err)
		return
	}
	if err != nil {
		logError(r, "failed to compute stats", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// ComputeBucketStats ranks a bucket's cards by their rating distribution.
func ComputeBucketStats(ctx context.Context, db *sql.DB, store *ratings.SQLStore, bucketID string) (models.BucketStats, error) {
	// Get all cards for the bucket
	cards, err := loadCards(ctx, db, bucketID)
	if err != nil {
		return models.BucketStats{}, fmt.Errorf("failed to load cards: %w", err)
	}
	// Get all rating values grouped by card
	values, err := store.Values(ctx, bucketID)
	if err != nil {
		return models.BucketStats{}, fmt.Errorf("%w: %w", ratings.ErrStoreUnavailable, err)
	}

	// Compute statistics for each card, rated or not
	total := 0
	stats := make([]models.CardStats, 0, len(cards))
	for _, c := range cards {
		raw := values[c.Position]
		sorted := make([]float64, len(raw))
		for i, v := range raw {
			sorted[i] = float64(v)
		}
		// Sort for percentile calculations
		sort.Float64s(sorted)
		total += len(sorted)

		stats = append(stats, models.CardStats{
			Position: c.Position,
			Title:    c.Title,
			Mean:     mean(sorted),
			Median:   percentile(sorted, 0.5),
			P10:      percentile(sorted, 0.1),
			P90:      percentile(sorted, 0.9),
			Count:    len(sorted),
		})
	}

	rankCards(stats)

	return models.BucketStats{
		BucketID:     bucketID,
		ComputedAt:   time.Now().UTC(),
		TotalRatings: total,
		Rankings:     stats,
	}, nil
}

// rankCards sorts by mean, then median, then count (all descending), then
// position, and assigns 1-indexed ranks. Unrated cards sort last.
func rankCards(stats []models.CardStats) {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]

		// 1. Rated cards come first
		if (a.Count == 0) != (b.Count == 0) {
			return a.Count != 0
		}
		// 2. Higher mean wins
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		// 3. Higher median wins
		if a.Median != b.Median {
			return a.Median > b.Median
		}
		// 4. More ratings wins
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		// 5. Stable tie-breaking by position (ascending)
		return a.Position < b.Position
	})

	// Assign ranks
	for i := range stats {
		stats[i].Rank = i + 1
	}
}

// percentile calculates the p-th percentile of sorted data
// p should be in range [0, 1]
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Linear interpolation between closest ranks
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Interpolate
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// mean calculates the arithmetic mean
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/literary-wheel/auth"
	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/ratings"
)

type RatingHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	ratings *ratings.Aggregator
}

func NewRatingHandler(db *sql.DB, cfg cliparse.Config) *RatingHandler {
	return &RatingHandler{
		db:      db,
		cfg:     cfg,
		ratings: ratings.NewAggregator(ratings.NewSQLStore(db), cfg.Policy.RatingBounds()),
	}
}

// RateCard handles POST /buckets/{id}/cards/{position}/rate
// Creates or replaces the caller's rating and returns the card's new
// average and count.
func (h *RatingHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	// Anonymous callers are rejected before any validation
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}

	bucketID := r.PathValue("id")
	position, err := parsePosition(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.RateCardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value is required")
		return
	}

	value, err := h.ratings.ParseValue(*req.Value)
	if err != nil {
		writeRatingError(w, r, err)
		return
	}

	exists, err := cardExists(r.Context(), h.db, bucketID, position)
	if err != nil {
		writeRatingError(w, r, errors.Join(ratings.ErrStoreUnavailable, err))
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Card not found")
		return
	}

	summary, err := h.ratings.Submit(r.Context(), ratings.Submission{
		BucketID:  bucketID,
		Position:  position,
		RaterID:   user.ID,
		Value:     value,
		IPHash:    auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeRatingError(w, r, err)
		return
	}

	slog.Info("card rated", "bucket_id", bucketID, "position", position, "rater_id", user.ID, "count", summary.Count)

	middleware.JSONResponse(w, http.StatusOK, models.RateCardResponse{
		Position: position,
		Average:  summary.Average,
		Count:    summary.Count,
	})
}

// GetMyRating handles GET /buckets/{id}/cards/{position}/my-rating
func (h *RatingHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}

	bucketID := r.PathValue("id")
	position, err := parsePosition(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := cardExists(r.Context(), h.db, bucketID, position)
	if err != nil {
		logError(r, "failed to query card", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Card not found")
		return
	}

	value, found, err := h.ratings.Lookup(r.Context(), bucketID, position, user.ID)
	if err != nil {
		writeRatingError(w, r, err)
		return
	}

	resp := models.MyRatingResponse{Position: position}
	if found {
		resp.Value = &value
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

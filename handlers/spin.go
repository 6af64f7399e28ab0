// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/ratings"
	"github.com/danielhkuo/literary-wheel/wheel"
)

const (
	maxHoldMS      = 60_000
	maxStopSeconds = 3600
)

type SpinHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	ratings *ratings.Aggregator
}

func NewSpinHandler(db *sql.DB, cfg cliparse.Config) *SpinHandler {
	return &SpinHandler{
		db:      db,
		cfg:     cfg,
		ratings: ratings.NewAggregator(ratings.NewSQLStore(db), cfg.Policy.RatingBounds()),
	}
}

// Spin handles POST /buckets/{id}/spin
// Replays a scripted press/hold/release at the policy frame rate and returns
// the card the wheel settles on. The same request always lands on the same
// card.
func (h *SpinHandler) Spin(w http.ResponseWriter, r *http.Request) {
	bucketID := r.PathValue("id")

	var req models.SpinRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.HoldMS < 0 || req.HoldMS > maxHoldMS {
		middleware.ErrorResponse(w, http.StatusBadRequest, "hold_ms must be between 0 and 60000")
		return
	}

	if _, err := loadBucketByID(r.Context(), h.db, bucketID); err != nil {
		if errors.Is(err, errBucketNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Bucket not found")
			return
		}
		logError(r, "failed to load bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	cards, err := loadCards(r.Context(), h.db, bucketID)
	if err != nil {
		logError(r, "failed to load cards", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sess, err := wheel.NewSession(cards, h.cfg.Policy.WheelConfig())
	if errors.Is(err, wheel.ErrEmptyCollection) {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logError(r, "failed to create wheel session", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to spin")
		return
	}

	out, err := wheel.Replay(sess, wheel.SpinPlan{
		StartAngle: req.StartAngle,
		Hold:       time.Duration(req.HoldMS) * time.Millisecond,
		Stop:       secondsToDuration(req.StopTime),
		FrameHz:    h.cfg.Policy.Wheel.FrameHz,
	})
	if err != nil {
		// Bad stop time or hold; the session itself is fresh.
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	card, _, _ := sess.Result()
	summary, err := h.ratings.Summary(r.Context(), bucketID, card.Position)
	if err != nil {
		writeRatingError(w, r, err)
		return
	}
	card.Average = summary.Average
	card.Count = summary.Count

	slog.Info("spin replayed", "bucket_id", bucketID, "hold_ms", req.HoldMS, "index", out.Index)

	middleware.JSONResponse(w, http.StatusOK, models.SpinResponse{
		Index:          out.Index,
		Card:           card,
		FinalAngle:     out.FinalAngle,
		PeakVelocity:   out.PeakVelocity,
		Frames:         out.Frames,
		SettledAfterMS: out.SettledAfter.Milliseconds(),
	})
}

// secondsToDuration converts a client stop time. Non-finite input maps to a
// negative duration so the range check rejects it.
func secondsToDuration(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) || math.Abs(s) > maxStopSeconds {
		return -1
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/literary-wheel/auth"
	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/ratings"
)

type BucketHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	ratings *ratings.Aggregator
}

func NewBucketHandler(db *sql.DB, cfg cliparse.Config) *BucketHandler {
	return &BucketHandler{
		db:      db,
		cfg:     cfg,
		ratings: ratings.NewAggregator(ratings.NewSQLStore(db), cfg.Policy.RatingBounds()),
	}
}

// CreateBucket handles POST /buckets
// Cards get positions 1..N in request order.
func (h *BucketHandler) CreateBucket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}

	var req models.CreateBucketRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name, err := validateBucketName(req.Name)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	limits := h.cfg.Policy.Buckets
	if len(req.Cards) < limits.MinCards || len(req.Cards) > limits.MaxCards {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("a bucket needs between %d and %d cards, got %d", limits.MinCards, limits.MaxCards, len(req.Cards)))
		return
	}
	if err := validateCards(req.Cards); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	bucketID, err := auth.NewID()
	if err != nil {
		logError(r, "failed to generate bucket ID", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create bucket")
		return
	}
	shareSlug := auth.GenerateShareSlug(bucketID, h.cfg.ShareSlugSalt)
	now := time.Now().UTC()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		logError(r, "failed to begin transaction", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO bucket (id, name, owner_id, share_slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, bucketID, name, user.ID, shareSlug, now)
	if err != nil {
		logError(r, "failed to insert bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create bucket")
		return
	}

	for i, c := range req.Cards {
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO card (bucket_id, position, title, category, author, content)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, bucketID, i+1, c.Title, c.Category, c.Author, c.Content)
		if err != nil {
			logError(r, "failed to insert card", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create bucket")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		logError(r, "failed to commit bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create bucket")
		return
	}

	slog.Info("bucket created", "bucket_id", bucketID, "owner_id", user.ID, "cards", len(req.Cards))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateBucketResponse{
		BucketID:  bucketID,
		ShareSlug: shareSlug,
		CardCount: len(req.Cards),
	})
}

// ListBuckets handles GET /buckets
func (h *BucketHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := queryBucketSummaries(r.Context(), h.db, "")
	if err != nil {
		logError(r, "failed to list buckets", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, buckets)
}

// GetBucket handles GET /buckets/{id}
// ?card=N additionally returns card N as selected_card.
func (h *BucketHandler) GetBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := loadBucketByID(r.Context(), h.db, r.PathValue("id"))
	h.writeBucket(w, r, bucket, err)
}

// GetBucketBySlug handles GET /s/{slug}
func (h *BucketHandler) GetBucketBySlug(w http.ResponseWriter, r *http.Request) {
	bucket, err := loadBucketBySlug(r.Context(), h.db, r.PathValue("slug"))
	h.writeBucket(w, r, bucket, err)
}

func (h *BucketHandler) writeBucket(w http.ResponseWriter, r *http.Request, bucket models.Bucket, err error) {
	if errors.Is(err, errBucketNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Bucket not found")
		return
	}
	if err != nil {
		logError(r, "failed to load bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp, err := h.bucketWithCards(r, bucket)
	if err != nil {
		if errors.Is(err, ratings.ErrStoreUnavailable) {
			writeRatingError(w, r, err)
			return
		}
		logError(r, "failed to load cards", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if raw := r.URL.Query().Get("card"); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil || pos < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "card must be a positive integer")
			return
		}
		if pos > len(resp.Cards) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Card not found")
			return
		}
		selected := resp.Cards[pos-1]
		resp.SelectedCard = &selected
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *BucketHandler) bucketWithCards(r *http.Request, bucket models.Bucket) (models.BucketWithCards, error) {
	cards, err := loadCards(r.Context(), h.db, bucket.ID)
	if err != nil {
		return models.BucketWithCards{}, err
	}
	sums, err := h.ratings.Summaries(r.Context(), bucket.ID)
	if err != nil {
		return models.BucketWithCards{}, err
	}
	attachSummaries(cards, sums)
	return models.BucketWithCards{Bucket: bucket, Cards: cards}, nil
}

// UpdateBucket handles PATCH /buckets/{id}
// Owner only. Renames the bucket and/or rewrites card text by position; the
// number of cards cannot change, so existing ratings keep their card.
func (h *BucketHandler) UpdateBucket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}
	bucket, ok := h.ownedBucket(w, r, user)
	if !ok {
		return
	}

	var req models.UpdateBucketRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == nil && req.Cards == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nothing to update")
		return
	}

	name := bucket.Name
	if req.Name != nil {
		n, err := validateBucketName(*req.Name)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		name = n
	}

	if req.Cards != nil {
		var count int
		err := h.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM card WHERE bucket_id = $1`, bucket.ID).Scan(&count)
		if err != nil {
			logError(r, "failed to count cards", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if len(req.Cards) != count {
			middleware.ErrorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("card count cannot change: bucket has %d cards, got %d", count, len(req.Cards)))
			return
		}
		if err := validateCards(req.Cards); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		logError(r, "failed to begin transaction", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(r.Context(), `
		UPDATE bucket SET name = $1, updated_at = $2 WHERE id = $3
	`, name, now, bucket.ID)
	if err != nil {
		logError(r, "failed to update bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update bucket")
		return
	}

	for i, c := range req.Cards {
		_, err = tx.ExecContext(r.Context(), `
			UPDATE card SET title = $1, category = $2, author = $3, content = $4
			WHERE bucket_id = $5 AND position = $6
		`, c.Title, c.Category, c.Author, c.Content, bucket.ID, i+1)
		if err != nil {
			logError(r, "failed to update card", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update bucket")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		logError(r, "failed to commit bucket update", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update bucket")
		return
	}

	slog.Info("bucket updated", "bucket_id", bucket.ID, "renamed", req.Name != nil, "cards", len(req.Cards))

	bucket.Name = name
	bucket.UpdatedAt = now
	h.writeBucket(w, r, bucket, nil)
}

// DeleteBucket handles DELETE /buckets/{id}
// Owner only. Cards and ratings cascade.
func (h *BucketHandler) DeleteBucket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}
	bucket, ok := h.ownedBucket(w, r, user)
	if !ok {
		return
	}

	_, err := h.db.ExecContext(r.Context(), `DELETE FROM bucket WHERE id = $1`, bucket.ID)
	if err != nil {
		logError(r, "failed to delete bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete bucket")
		return
	}

	slog.Info("bucket deleted", "bucket_id", bucket.ID, "owner_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedBucket loads {id} and checks that user owns it, writing 404 or 403
// otherwise.
func (h *BucketHandler) ownedBucket(w http.ResponseWriter, r *http.Request, user models.User) (models.Bucket, bool) {
	bucket, err := loadBucketByID(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, errBucketNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Bucket not found")
		return models.Bucket{}, false
	}
	if err != nil {
		logError(r, "failed to load bucket", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Bucket{}, false
	}
	if bucket.OwnerID != user.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the owner can change this bucket")
		return models.Bucket{}, false
	}
	return bucket, true
}

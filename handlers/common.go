// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/literary-wheel/auth"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/ratings"
)

var (
	errNoUser         = errors.New("no user for token")
	errBucketNotFound = errors.New("bucket not found")
)

// Field limits
const (
	maxBucketNameLen = 100
	maxCardTitleLen  = 200
	maxCardFieldLen  = 100
	maxCardContent   = 10000
)

// currentUser resolves X-User-Token to a user. A missing, malformed or
// unknown token yields errNoUser.
func currentUser(ctx context.Context, db *sql.DB, r *http.Request) (models.User, error) {
	token := middleware.UserToken(r)
	if token == "" || auth.ValidateUserToken(token) != nil {
		return models.User{}, errNoUser
	}

	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, name, user_token, created_at FROM app_user WHERE user_token = $1
	`, token).Scan(&u.ID, &u.Name, &u.Token, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, errNoUser
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// requireUser writes 401 or 500 and returns false when there is no user.
func requireUser(w http.ResponseWriter, r *http.Request, db *sql.DB) (models.User, bool) {
	u, err := currentUser(r.Context(), db, r)
	if errors.Is(err, errNoUser) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, middleware.UserTokenHeader+" header with a registered token required")
		return models.User{}, false
	}
	if err != nil {
		logError(r, "failed to resolve user", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.User{}, false
	}
	return u, true
}

func loadBucket(ctx context.Context, db *sql.DB, where string, arg any) (models.Bucket, error) {
	var b models.Bucket
	err := db.QueryRowContext(ctx, `
		SELECT b.id, b.name, b.owner_id, u.name, b.share_slug, b.created_at, b.updated_at
		FROM bucket b
		JOIN app_user u ON u.id = b.owner_id
		WHERE `+where+` = $1
	`, arg).Scan(&b.ID, &b.Name, &b.OwnerID, &b.OwnerName, &b.ShareSlug, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Bucket{}, errBucketNotFound
	}
	if err != nil {
		return models.Bucket{}, fmt.Errorf("query bucket: %w", err)
	}
	return b, nil
}

func loadBucketByID(ctx context.Context, db *sql.DB, id string) (models.Bucket, error) {
	return loadBucket(ctx, db, "b.id", id)
}

func loadBucketBySlug(ctx context.Context, db *sql.DB, slug string) (models.Bucket, error) {
	return loadBucket(ctx, db, "b.share_slug", slug)
}

// loadCards returns the bucket's cards in position order, without ratings.
func loadCards(ctx context.Context, db *sql.DB, bucketID string) ([]models.Card, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT position, title, category, author, content
		FROM card
		WHERE bucket_id = $1
		ORDER BY position
	`, bucketID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.Position, &c.Title, &c.Category, &c.Author, &c.Content); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func cardExists(ctx context.Context, db *sql.DB, bucketID string, position int) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM card WHERE bucket_id = $1 AND position = $2)
	`, bucketID, position).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query card: %w", err)
	}
	return exists, nil
}

// attachSummaries fills Average and Count on each card.
func attachSummaries(cards []models.Card, sums map[int]ratings.Summary) {
	for i := range cards {
		s := sums[cards[i].Position]
		cards[i].Average = s.Average
		cards[i].Count = s.Count
	}
}

// queryBucketSummaries lists buckets, newest update first. filter is an
// optional "column = $1" clause.
func queryBucketSummaries(ctx context.Context, db *sql.DB, filter string, args ...any) ([]models.BucketSummary, error) {
	where := ""
	if filter != "" {
		where = "WHERE " + filter
	}
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.name, u.name, b.share_slug, b.updated_at,
		       (SELECT COUNT(*) FROM card c WHERE c.bucket_id = b.id) AS card_count
		FROM bucket b
		JOIN app_user u ON u.id = b.owner_id
		`+where+`
		ORDER BY b.updated_at DESC, b.id
		LIMIT 200
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	out := []models.BucketSummary{}
	for rows.Next() {
		var s models.BucketSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.OwnerName, &s.ShareSlug, &s.UpdatedAt, &s.CardCount); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		s.UpdatedAgo = humanize.Time(s.UpdatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// parsePosition reads the {position} path value. Positions start at 1.
func parsePosition(r *http.Request) (int, error) {
	p, err := strconv.Atoi(r.PathValue("position"))
	if err != nil || p < 1 {
		return 0, errors.New("position must be a positive integer")
	}
	return p, nil
}

// isUniqueViolation reports whether err is a unique or primary key conflict
// on either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

// writeRatingError maps aggregator errors to HTTP statuses.
func writeRatingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ratings.ErrInvalidRatingValue):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ratings.ErrUnauthenticated):
		middleware.ErrorResponse(w, http.StatusUnauthorized, middleware.UserTokenHeader+" header with a registered token required")
	case errors.Is(err, ratings.ErrStoreUnavailable):
		logError(r, "rating store unavailable", err)
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Rating store unavailable, please retry")
	default:
		logError(r, "rating failed", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}

// validateCards checks the text fields of every card.
func validateCards(cards []models.CardInput) error {
	for i := range cards {
		c := &cards[i]
		c.Title = strings.TrimSpace(c.Title)
		c.Category = strings.TrimSpace(c.Category)
		c.Author = strings.TrimSpace(c.Author)
		c.Content = strings.TrimSpace(c.Content)

		switch {
		case c.Title == "":
			return fmt.Errorf("card %d: title is required", i+1)
		case c.Content == "":
			return fmt.Errorf("card %d: content is required", i+1)
		case len(c.Title) > maxCardTitleLen:
			return fmt.Errorf("card %d: title is too long", i+1)
		case len(c.Category) > maxCardFieldLen || len(c.Author) > maxCardFieldLen:
			return fmt.Errorf("card %d: category and author must be at most %d bytes", i+1, maxCardFieldLen)
		case len(c.Content) > maxCardContent:
			return fmt.Errorf("card %d: content is too long", i+1)
		}
	}
	return nil
}

func validateBucketName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}
	if len(name) > maxBucketNameLen {
		return "", fmt.Errorf("name must be at most %d bytes", maxBucketNameLen)
	}
	return name, nil
}

func logError(r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "request_id", middleware.RequestID(r.Context()), "path", r.URL.Path)
}

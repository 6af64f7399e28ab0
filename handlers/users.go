// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/literary-wheel/auth"
	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/middleware"
	"github.com/danielhkuo/literary-wheel/models"
)

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Register handles POST /users
// Claims a display name and returns the user's secret token. The token is
// only ever returned here.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name, err := auth.NormalizeUserName(req.Name)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := auth.NewID()
	if err != nil {
		logError(r, "failed to generate user ID", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	token, err := auth.GenerateUserToken()
	if err != nil {
		logError(r, "failed to generate user token", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	// UNIQUE constraint on name prevents duplicates
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO app_user (id, name, user_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, name, token, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Name already taken")
			return
		}
		logError(r, "failed to insert user", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	slog.Info("user registered", "user_id", userID, "name", name)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterUserResponse{
		UserID:    userID,
		Name:      name,
		UserToken: token,
	})
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}

// GetMyBuckets handles GET /users/me/buckets
func (h *UserHandler) GetMyBuckets(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.db)
	if !ok {
		return
	}

	buckets, err := queryBucketSummaries(r.Context(), h.db, "b.owner_id = $1", user.ID)
	if err != nil {
		logError(r, "failed to list user buckets", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, buckets)
}


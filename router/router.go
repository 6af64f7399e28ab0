// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/handlers"
	"github.com/danielhkuo/literary-wheel/middleware"
)

// Banner is served at the root path.
const Banner = "literary-wheel API v1"

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	bucketHandler := handlers.NewBucketHandler(db, cfg)
	ratingHandler := handlers.NewRatingHandler(db, cfg)
	statsHandler := handlers.NewStatsHandler(db, cfg)
	spinHandler := handlers.NewSpinHandler(db, cfg)
	wheelHandler := handlers.NewWheelHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.Register))
	mux.HandleFunc("GET /users/me", middleware.WithLogging(userHandler.GetMe))
	mux.HandleFunc("GET /users/me/buckets", middleware.WithLogging(userHandler.GetMyBuckets))

	// Buckets
	mux.HandleFunc("POST /buckets", middleware.WithLogging(bucketHandler.CreateBucket))
	mux.HandleFunc("GET /buckets", middleware.WithLogging(bucketHandler.ListBuckets))
	mux.HandleFunc("GET /buckets/{id}", middleware.WithLogging(bucketHandler.GetBucket))
	mux.HandleFunc("PATCH /buckets/{id}", middleware.WithLogging(bucketHandler.UpdateBucket))
	mux.HandleFunc("DELETE /buckets/{id}", middleware.WithLogging(bucketHandler.DeleteBucket))
	mux.HandleFunc("GET /s/{slug}", middleware.WithLogging(bucketHandler.GetBucketBySlug))

	// Ratings
	mux.HandleFunc("POST /buckets/{id}/cards/{position}/rate", middleware.WithLogging(ratingHandler.RateCard))
	mux.HandleFunc("GET /buckets/{id}/cards/{position}/my-rating", middleware.WithLogging(ratingHandler.GetMyRating))
	mux.HandleFunc("GET /buckets/{id}/stats", middleware.WithLogging(statsHandler.GetStats))

	// Wheel
	mux.HandleFunc("POST /buckets/{id}/spin", middleware.WithLogging(spinHandler.Spin))
	mux.HandleFunc("GET /buckets/{id}/wheel", middleware.WithLogging(wheelHandler.Serve))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Banner))
	})

	return mux
}

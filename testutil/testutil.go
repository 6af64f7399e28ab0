// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/literary-wheel/auth"
	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/db"
)

// SetupTestDB opens a fresh SQLite database in a temp dir with the full
// schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          cliparse.DefaultPort,
		DatabaseType:  db.TypeSQLite,
		ShareSlugSalt: "test-slug-salt",
		IPHashSalt:    "test-ip-salt",
		LogLevel:      cliparse.DefaultLogLevel,
		Policy:        cliparse.DefaultPolicy(),
	}
}

// CreateTestUser registers a user and returns its ID and token
func CreateTestUser(t *testing.T, conn *sql.DB, name string) (userID, token string) {
	t.Helper()

	userID, _ = auth.NewID()
	token, err := auth.GenerateUserToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO app_user (id, name, user_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, name, token, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return userID, token
}

// CreateTestBucket creates a bucket owned by ownerID with n cards titled
// "Card 1".."Card n" and returns its ID and share slug
func CreateTestBucket(t *testing.T, conn *sql.DB, cfg cliparse.Config, ownerID string, n int) (bucketID, shareSlug string) {
	t.Helper()

	bucketID, _ = auth.NewID()
	shareSlug = auth.GenerateShareSlug(bucketID, cfg.ShareSlugSalt)
	now := time.Now().UTC()

	_, err := conn.Exec(`
		INSERT INTO bucket (id, name, owner_id, share_slug, created_at, updated_at)
		VALUES ($1, 'Test Bucket', $2, $3, $4, $4)
	`, bucketID, ownerID, shareSlug, now)
	if err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}

	for i := 1; i <= n; i++ {
		_, err := conn.Exec(`
			INSERT INTO card (bucket_id, position, title, category, author, content)
			VALUES ($1, $2, $3, 'Poetry', 'Anonymous', $4)
		`, bucketID, i, fmt.Sprintf("Card %d", i), fmt.Sprintf("Content of card %d", i))
		if err != nil {
			t.Fatalf("Failed to create test card: %v", err)
		}
	}

	return bucketID, shareSlug
}

// CountRatings returns the number of stored ratings for one card
func CountRatings(t *testing.T, conn *sql.DB, bucketID string, position int) int {
	t.Helper()

	var n int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM rating WHERE bucket_id = $1 AND card_position = $2
	`, bucketID, position).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count ratings: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

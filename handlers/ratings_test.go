// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/testutil"
)

// rateCard posts {"value": value} for one card. value may be any JSON-able
// value so malformed input can be exercised.
func rateCard(t *testing.T, h *RatingHandler, bucketID string, position int, token string, value any) *httptest.ResponseRecorder {
	t.Helper()

	headers := map[string]string{}
	if token != "" {
		headers["X-User-Token"] = token
	}
	pos := strconv.Itoa(position)
	req := testutil.MakeRequest("POST", "/buckets/"+bucketID+"/cards/"+pos+"/rate", map[string]any{"value": value}, headers)
	req.SetPathValue("id", bucketID)
	req.SetPathValue("position", pos)
	w := httptest.NewRecorder()
	h.RateCard(w, req)
	return w
}

func TestRateCard_RerateReplacesValue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, token := testutil.CreateTestUser(t, db, "Rater")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	testutil.AssertStatus(t, rateCard(t, h, bucketID, 2, token, 3), http.StatusOK)
	w := rateCard(t, h, bucketID, 2, token, 5)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.RateCardResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Count != 1 || resp.Average != 5 {
		t.Errorf("expected a single rating of 5, got %+v", resp)
	}
	if n := testutil.CountRatings(t, db, bucketID, 2); n != 1 {
		t.Errorf("expected 1 stored rating, got %d", n)
	}
}

func TestRateCard_AverageAcrossRaters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, aliceToken := testutil.CreateTestUser(t, db, "Alice")
	_, bobToken := testutil.CreateTestUser(t, db, "Bob")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	testutil.AssertStatus(t, rateCard(t, h, bucketID, 1, aliceToken, 4), http.StatusOK)
	w := rateCard(t, h, bucketID, 1, bobToken, 2)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.RateCardResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Position != 1 || resp.Count != 2 || math.Abs(resp.Average-3.0) > 1e-9 {
		t.Errorf("expected average 3.0 over 2 ratings, got %+v", resp)
	}
}

func TestRateCard_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, token := testutil.CreateTestUser(t, db, "Rater")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	tests := []struct {
		name       string
		position   int
		token      string
		value      any
		wantStatus int
	}{
		{"below range", 1, token, 0, http.StatusBadRequest},
		{"above range", 1, token, 6, http.StatusBadRequest},
		{"fractional", 1, token, 3.5, http.StatusBadRequest},
		{"not a number", 1, token, "five", http.StatusBadRequest},
		{"missing value", 1, token, nil, http.StatusBadRequest},
		{"anonymous", 1, "", 3, http.StatusUnauthorized},
		{"anonymous invalid value", 1, "", 6, http.StatusUnauthorized},
		{"anonymous missing value", 1, "", nil, http.StatusUnauthorized},
		{"anonymous unknown card", 9, "", 3, http.StatusUnauthorized},
		{"unknown token", 1, mustToken(t), 3, http.StatusUnauthorized},
		{"card out of range", 7, token, 3, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := rateCard(t, h, bucketID, tt.position, tt.token, tt.value)
			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}

	if n := testutil.CountRatings(t, db, bucketID, 1); n != 0 {
		t.Errorf("rejected submissions must not be stored, found %d", n)
	}
}

func TestRateCard_InvalidPosition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewRatingHandler(db, testutil.GetTestConfig())
	_, token := testutil.CreateTestUser(t, db, "Rater")

	req := testutil.MakeRequest("POST", "/buckets/x/cards/zero/rate", map[string]any{"value": 3}, map[string]string{"X-User-Token": token})
	req.SetPathValue("id", "x")
	req.SetPathValue("position", "zero")
	w := httptest.NewRecorder()
	h.RateCard(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestRateCard_ConcurrentSameRater(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, token := testutil.CreateTestUser(t, db, "Rater")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	const submissions = 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := rateCard(t, h, bucketID, 3, token, 1+i%5)
			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(successCount.Load()) != submissions {
		t.Errorf("expected %d successful submissions, got %d", submissions, successCount.Load())
	}
	if n := testutil.CountRatings(t, db, bucketID, 3); n != 1 {
		t.Errorf("expected exactly 1 stored rating, got %d", n)
	}
}

func TestRateCard_ConcurrentDistinctRaters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, _ := testutil.CreateTestUser(t, db, "Owner")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	const raters = 8
	tokens := make([]string, raters)
	for i := range tokens {
		_, tokens[i] = testutil.CreateTestUser(t, db, "Rater"+strconv.Itoa(i))
	}

	var wg sync.WaitGroup
	for i := 0; i < raters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rateCard(t, h, bucketID, 4, tokens[i], 4)
		}(i)
	}
	wg.Wait()

	if n := testutil.CountRatings(t, db, bucketID, 4); n != raters {
		t.Errorf("expected %d ratings, got %d", raters, n)
	}
}

func TestGetMyRating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewRatingHandler(db, cfg)
	ownerID, token := testutil.CreateTestUser(t, db, "Rater")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	get := func(position, token string) *httptest.ResponseRecorder {
		headers := map[string]string{}
		if token != "" {
			headers["X-User-Token"] = token
		}
		req := testutil.MakeRequest("GET", "/buckets/"+bucketID+"/cards/"+position+"/my-rating", nil, headers)
		req.SetPathValue("id", bucketID)
		req.SetPathValue("position", position)
		w := httptest.NewRecorder()
		h.GetMyRating(w, req)
		return w
	}

	w := get("2", token)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.MyRatingResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Value != nil {
		t.Errorf("expected no rating yet, got %d", *resp.Value)
	}

	rateCard(t, h, bucketID, 2, token, 4)

	w = get("2", token)
	testutil.AssertStatus(t, w, http.StatusOK)
	resp = models.MyRatingResponse{}
	testutil.AssertJSON(t, w, &resp)
	if resp.Value == nil || *resp.Value != 4 {
		t.Errorf("expected my rating 4, got %v", resp.Value)
	}

	testutil.AssertStatus(t, get("2", ""), http.StatusUnauthorized)
	testutil.AssertStatus(t, get("9", token), http.StatusNotFound)
}

func TestBucketAveragesAfterRating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	rh := NewRatingHandler(db, cfg)
	bh := NewBucketHandler(db, cfg)
	ownerID, aliceToken := testutil.CreateTestUser(t, db, "Alice")
	_, bobToken := testutil.CreateTestUser(t, db, "Bob")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	rateCard(t, rh, bucketID, 5, aliceToken, 5)
	rateCard(t, rh, bucketID, 5, bobToken, 4)

	req := testutil.MakeRequest("GET", "/buckets/"+bucketID+"?card=5", nil, nil)
	req.SetPathValue("id", bucketID)
	w := httptest.NewRecorder()
	bh.GetBucket(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.BucketWithCards
	testutil.AssertJSON(t, w, &resp)
	if c := resp.Cards[4]; c.Count != 2 || c.Average != 4.5 {
		t.Errorf("expected card 5 average 4.5 over 2, got %+v", c)
	}
	if resp.SelectedCard == nil || resp.SelectedCard.Average != 4.5 {
		t.Errorf("selected card should carry its average, got %+v", resp.SelectedCard)
	}
	if c := resp.Cards[0]; c.Count != 0 {
		t.Errorf("card 1 should be unrated, got %+v", c)
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/literary-wheel/models"
	"github.com/danielhkuo/literary-wheel/testutil"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		p        float64
		expected float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{4}, 0.9, 4},
		{"median odd", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"median even", []float64{1, 2, 4, 5}, 0.5, 3},
		{"p10", []float64{1, 2, 3, 4, 5}, 0.1, 1.4},
		{"p90", []float64{1, 2, 3, 4, 5}, 0.9, 4.6},
		{"p100", []float64{1, 5}, 1.0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(tt.data, tt.p)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.data, tt.p, got, tt.expected)
			}
		})
	}
}

func TestMean(t *testing.T) {
	if got := mean(nil); got != 0 {
		t.Errorf("mean(nil) = %v, want 0", got)
	}
	if got := mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("mean = %v, want 2.5", got)
	}
}

func TestRankCards(t *testing.T) {
	stats := []models.CardStats{
		{Position: 1, Mean: 3, Median: 3, Count: 2},
		{Position: 2, Count: 0},
		{Position: 3, Mean: 4, Median: 4, Count: 1},
		{Position: 4, Mean: 3, Median: 3, Count: 5},
		{Position: 5, Mean: 3, Median: 4, Count: 1},
		{Position: 6, Mean: 3, Median: 3, Count: 2},
	}

	rankCards(stats)

	// mean desc, then median desc, then count desc, then position; unrated last
	want := []int{3, 5, 4, 1, 6, 2}
	for i, s := range stats {
		if s.Position != want[i] {
			t.Errorf("rank %d: got position %d, want %d", i+1, s.Position, want[i])
		}
		if s.Rank != i+1 {
			t.Errorf("position %d: got rank %d, want %d", s.Position, s.Rank, i+1)
		}
	}
}

func TestGetStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	sh := NewStatsHandler(db, cfg)
	rh := NewRatingHandler(db, cfg)

	ownerID, _ := testutil.CreateTestUser(t, db, "Owner")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	tokens := make([]string, 3)
	for i, name := range []string{"A", "B", "C"} {
		_, tokens[i] = testutil.CreateTestUser(t, db, name)
	}
	// card 2: 5,5,4   card 4: 1,2,3   card 6: 5
	for i, v := range []int{5, 5, 4} {
		testutil.AssertStatus(t, rateCard(t, rh, bucketID, 2, tokens[i], v), http.StatusOK)
	}
	for i, v := range []int{1, 2, 3} {
		testutil.AssertStatus(t, rateCard(t, rh, bucketID, 4, tokens[i], v), http.StatusOK)
	}
	testutil.AssertStatus(t, rateCard(t, rh, bucketID, 6, tokens[0], 5), http.StatusOK)

	req := testutil.MakeRequest("GET", "/buckets/"+bucketID+"/stats", nil, nil)
	req.SetPathValue("id", bucketID)
	w := httptest.NewRecorder()
	sh.GetStats(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var stats models.BucketStats
	testutil.AssertJSON(t, w, &stats)

	if stats.TotalRatings != 7 {
		t.Errorf("expected 7 ratings, got %d", stats.TotalRatings)
	}
	if len(stats.Rankings) != 6 {
		t.Fatalf("expected 6 cards ranked, got %d", len(stats.Rankings))
	}

	top := stats.Rankings[0]
	if top.Position != 6 || top.Mean != 5 {
		t.Errorf("expected card 6 first with mean 5, got %+v", top)
	}
	second := stats.Rankings[1]
	if second.Position != 2 || second.Median != 5 || second.Count != 3 {
		t.Errorf("expected card 2 second, got %+v", second)
	}
	if third := stats.Rankings[2]; third.Position != 4 || third.Mean != 2 {
		t.Errorf("expected card 4 third, got %+v", third)
	}
	for _, s := range stats.Rankings[3:] {
		if s.Count != 0 {
			t.Errorf("expected unrated cards last, got %+v", s)
		}
	}

	req = testutil.MakeRequest("GET", "/buckets/missing/stats", nil, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	sh.GetStats(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetStats_RatingStoreUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	sh := NewStatsHandler(db, cfg)

	ownerID, _ := testutil.CreateTestUser(t, db, "Owner")
	bucketID, _ := testutil.CreateTestBucket(t, db, cfg, ownerID, 6)

	// Bucket and cards still load; only the rating query fails.
	if _, err := db.Exec(`DROP TABLE rating`); err != nil {
		t.Fatalf("failed to drop rating table: %v", err)
	}

	req := testutil.MakeRequest("GET", "/buckets/"+bucketID+"/stats", nil, nil)
	req.SetPathValue("id", bucketID)
	w := httptest.NewRecorder()
	sh.GetStats(w, req)

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

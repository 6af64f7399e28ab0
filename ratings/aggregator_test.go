// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratings

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

type cardKey struct {
	bucket string
	pos    int
}

// memStore is an in-memory Store. failing makes every call return errDown.
type memStore struct {
	mu      sync.Mutex
	values  map[cardKey]map[string]int
	failing bool
}

var errDown = errors.New("store down")

func newMemStore() *memStore {
	return &memStore{values: make(map[cardKey]map[string]int)}
}

func (m *memStore) Upsert(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errDown
	}
	k := cardKey{r.BucketID, r.Position}
	if m.values[k] == nil {
		m.values[k] = make(map[string]int)
	}
	m.values[k][r.RaterID] = r.Value
	return nil
}

func (m *memStore) Aggregate(_ context.Context, bucketID string, position int) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return Totals{}, errDown
	}
	var t Totals
	for _, v := range m.values[cardKey{bucketID, position}] {
		t.Sum += int64(v)
		t.Count++
	}
	return t, nil
}

func (m *memStore) AggregateBucket(_ context.Context, bucketID string) (map[int]Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errDown
	}
	out := make(map[int]Totals)
	for k, raters := range m.values {
		if k.bucket != bucketID {
			continue
		}
		var t Totals
		for _, v := range raters {
			t.Sum += int64(v)
			t.Count++
		}
		out[k.pos] = t
	}
	return out, nil
}

func (m *memStore) Lookup(_ context.Context, bucketID string, position int, raterID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return 0, false, errDown
	}
	v, ok := m.values[cardKey{bucketID, position}][raterID]
	return v, ok, nil
}

func TestAggregator_Validate(t *testing.T) {
	a := NewAggregator(newMemStore(), DefaultBounds())

	tests := []struct {
		value   int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{5, false},
		{6, true},
		{-1, true},
	}
	for _, tt := range tests {
		err := a.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%d) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidRatingValue) {
			t.Errorf("Validate(%d) should wrap ErrInvalidRatingValue, got %v", tt.value, err)
		}
	}
}

func TestAggregator_ParseValue(t *testing.T) {
	a := NewAggregator(newMemStore(), Bounds{Min: 1, Max: 10})

	tests := []struct {
		raw     float64
		want    int
		wantErr bool
	}{
		{1, 1, false},
		{10, 10, false},
		{7.0, 7, false},
		{7.5, 0, true},
		{0, 0, true},
		{11, 0, true},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
		{1e12, 0, true},
	}
	for _, tt := range tests {
		got, err := a.ParseValue(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseValue(%v) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidRatingValue) {
			t.Errorf("ParseValue(%v) should wrap ErrInvalidRatingValue, got %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseValue(%v) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestAggregator_SubmitReplacesRatersValue(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator(newMemStore(), DefaultBounds())

	if _, err := a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum, err := a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Count != 1 || sum.Average != 5 {
		t.Errorf("expected one rating of 5, got %+v", sum)
	}

	sum, err = a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "bob", Value: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Count != 2 || sum.Average != 3.5 {
		t.Errorf("expected average 3.5 over 2, got %+v", sum)
	}
}

func TestAggregator_SubmitRejections(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := NewAggregator(store, DefaultBounds())

	_, err := a.Submit(ctx, Submission{BucketID: "b", Position: 1, Value: 3})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	for _, v := range []int{0, 6} {
		_, err := a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: v})
		if !errors.Is(err, ErrInvalidRatingValue) {
			t.Errorf("value %d: expected ErrInvalidRatingValue, got %v", v, err)
		}
	}

	if _, ok, _ := store.Lookup(ctx, "b", 1, "alice"); ok {
		t.Error("rejected submissions must not be stored")
	}
}

func TestAggregator_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failing = true
	a := NewAggregator(store, DefaultBounds())

	_, err := a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: 3})
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, errDown) {
		t.Errorf("expected ErrStoreUnavailable wrapping the cause, got %v", err)
	}
	if _, err := a.Summaries(ctx, "b"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Summaries: expected ErrStoreUnavailable, got %v", err)
	}
	if _, _, err := a.Lookup(ctx, "b", 1, "alice"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Lookup: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAggregator_Summaries(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator(newMemStore(), DefaultBounds())

	a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: 4})
	a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "bob", Value: 2})
	a.Submit(ctx, Submission{BucketID: "b", Position: 3, RaterID: "alice", Value: 5})
	a.Submit(ctx, Submission{BucketID: "other", Position: 1, RaterID: "alice", Value: 1})

	sums, err := a.Summaries(ctx, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 rated cards, got %d", len(sums))
	}
	if sums[1] != (Summary{Average: 3, Count: 2}) {
		t.Errorf("card 1: got %+v", sums[1])
	}
	if sums[3] != (Summary{Average: 5, Count: 1}) {
		t.Errorf("card 3: got %+v", sums[3])
	}
	if _, ok := sums[2]; ok {
		t.Error("unrated card should be absent")
	}
}

func TestAggregator_Lookup(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator(newMemStore(), DefaultBounds())

	if _, _, err := a.Lookup(ctx, "b", 1, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	if _, ok, err := a.Lookup(ctx, "b", 1, "alice"); ok || err != nil {
		t.Errorf("expected no rating, got ok=%v err=%v", ok, err)
	}
	a.Submit(ctx, Submission{BucketID: "b", Position: 1, RaterID: "alice", Value: 4})
	if v, ok, err := a.Lookup(ctx, "b", 1, "alice"); !ok || v != 4 || err != nil {
		t.Errorf("expected 4, got %d ok=%v err=%v", v, ok, err)
	}
}

func TestTotals_Summary(t *testing.T) {
	if got := (Totals{}).Summary(); got != (Summary{}) {
		t.Errorf("empty totals: got %+v", got)
	}
	if got := (Totals{Sum: 7, Count: 2}).Summary(); got != (Summary{Average: 3.5, Count: 2}) {
		t.Errorf("got %+v", got)
	}
}

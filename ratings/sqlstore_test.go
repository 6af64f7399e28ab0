// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratings

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/literary-wheel/db"
)

// setupStore opens a temp SQLite database with one user per rater and one
// bucket "b1" holding cards 1..cards.
func setupStore(t *testing.T, cards int, raters ...string) (*SQLStore, *sql.DB) {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "ratings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("schema: %v", err)
	}

	now := time.Now().UTC()
	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := conn.Exec(q, args...); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	exec(`INSERT INTO app_user (id, name, user_token, created_at) VALUES ('owner', 'owner', 'owner-token', $1)`, now)
	for _, r := range raters {
		exec(`INSERT INTO app_user (id, name, user_token, created_at) VALUES ($1, $1, $2, $3)`, r, r+"-token", now)
	}
	exec(`INSERT INTO bucket (id, name, owner_id, share_slug, created_at, updated_at) VALUES ('b1', 'B', 'owner', 'slug', $1, $1)`, now)
	for i := 1; i <= cards; i++ {
		exec(`INSERT INTO card (bucket_id, position, title, content) VALUES ('b1', $1, $2, 'text')`, i, fmt.Sprintf("Card %d", i))
	}

	return NewSQLStore(conn), conn
}

func record(pos int, rater string, value int) Record {
	return Record{BucketID: "b1", Position: pos, RaterID: rater, Value: value, At: time.Now().UTC()}
}

func TestSQLStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t, 3, "alice")

	if err := store.Upsert(ctx, record(1, "alice", 3)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, record(1, "alice", 5)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	totals, err := store.Aggregate(ctx, "b1", 1)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if totals != (Totals{Sum: 5, Count: 1}) {
		t.Errorf("expected one rating of 5, got %+v", totals)
	}

	v, ok, err := store.Lookup(ctx, "b1", 1, "alice")
	if err != nil || !ok || v != 5 {
		t.Errorf("Lookup = %d, %v, %v; want 5, true, nil", v, ok, err)
	}
}

func TestSQLStore_AggregateEmptyCard(t *testing.T) {
	store, _ := setupStore(t, 2)

	totals, err := store.Aggregate(context.Background(), "b1", 2)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if totals != (Totals{}) {
		t.Errorf("expected zero totals, got %+v", totals)
	}
	if _, ok, err := store.Lookup(context.Background(), "b1", 2, "nobody"); ok || err != nil {
		t.Errorf("expected no rating, got ok=%v err=%v", ok, err)
	}
}

func TestSQLStore_UnknownCardRejected(t *testing.T) {
	store, _ := setupStore(t, 2, "alice")

	if err := store.Upsert(context.Background(), record(9, "alice", 3)); err == nil {
		t.Error("expected foreign key error for a missing card")
	}
}

func TestSQLStore_BucketQueries(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t, 4, "alice", "bob")

	for _, r := range []Record{
		record(1, "alice", 4),
		record(1, "bob", 2),
		record(3, "alice", 5),
	} {
		if err := store.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	all, err := store.AggregateBucket(ctx, "b1")
	if err != nil {
		t.Fatalf("aggregate bucket: %v", err)
	}
	if len(all) != 2 || all[1] != (Totals{Sum: 6, Count: 2}) || all[3] != (Totals{Sum: 5, Count: 1}) {
		t.Errorf("unexpected bucket totals %+v", all)
	}

	values, err := store.Values(ctx, "b1")
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	if len(values[1]) != 2 || len(values[3]) != 1 || values[3][0] != 5 {
		t.Errorf("unexpected values %+v", values)
	}

	rows, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 export rows, got %d", len(rows))
	}
	if rows[0].Position != 1 || rows[0].RaterID != "alice" || rows[2].Position != 3 {
		t.Errorf("export rows out of order: %+v", rows)
	}
	if rows[0].UpdatedAt.IsZero() {
		t.Error("expected export rows to carry updated_at")
	}

	n, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 cleared, got %d", n)
	}
	if rows, _ := store.All(ctx); len(rows) != 0 {
		t.Errorf("expected no ratings after clear, got %d", len(rows))
	}
}

func TestSQLStore_ConcurrentUpsertsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	store, conn := setupStore(t, 1, "alice")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Upsert(ctx, record(1, "alice", 1+i%5))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("upsert: %v", err)
		}
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM rating`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestSQLStore_DeletingUserRemovesRatings(t *testing.T) {
	ctx := context.Background()
	store, conn := setupStore(t, 1, "alice")

	if err := store.Upsert(ctx, record(1, "alice", 4)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := conn.Exec(`DELETE FROM app_user WHERE id = 'alice'`); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	totals, _ := store.Aggregate(ctx, "b1", 1)
	if totals.Count != 0 {
		t.Errorf("expected ratings to cascade with the user, got %+v", totals)
	}
}

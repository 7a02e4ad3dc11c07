// Package recordstoretest holds a conformance suite run against every record
// store driver.
package recordstoretest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/flatmate/flatmate-backend/internal/recordstore"
)

// Run exercises a compliance suite against a Store implementation.
// makeStore should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) recordstore.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Absent path reads as nil.
	if snap, err := s.Get(ctx, "users"); err != nil || snap != nil {
		t.Fatalf("Get absent: snap=%s err=%v", snap, err)
	}

	// Set then Get a record.
	user := map[string]any{"role": "member", "fullName": "Asha Verma", "flatNumber": "B-204", "dues": 5000.0}
	if err := s.Set(ctx, "users/u1", user); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got map[string]any
	mustGet(t, s, "users/u1", &got)
	if got["fullName"] != "Asha Verma" || got["dues"] != 5000.0 {
		t.Fatalf("Get record: %v", got)
	}

	// Collection read assembles children.
	if err := s.Set(ctx, "users/u2", map[string]any{"role": "admin", "name": "Office"}); err != nil {
		t.Fatalf("Set u2: %v", err)
	}
	var users map[string]map[string]any
	mustGet(t, s, "users", &users)
	if len(users) != 2 || users["u1"]["flatNumber"] != "B-204" || users["u2"]["role"] != "admin" {
		t.Fatalf("Get collection: %v", users)
	}

	// Partial update merges and leaves untouched fields alone; nil deletes.
	if err := s.Update(ctx, "users/u1", map[string]any{"dues": 3000.0, "paid": 2000.0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	mustGet(t, s, "users/u1", &got)
	if got["dues"] != 3000.0 || got["paid"] != 2000.0 || got["fullName"] != "Asha Verma" {
		t.Fatalf("Update merge: %v", got)
	}
	if err := s.Update(ctx, "users/u1", map[string]any{"paid": nil}); err != nil {
		t.Fatalf("Update delete: %v", err)
	}
	// Reset before decoding: json.Unmarshal keeps existing entries in a
	// non-nil map, which would mask the deletion.
	got = nil
	mustGet(t, s, "users/u1", &got)
	if _, present := got["paid"]; present {
		t.Fatalf("nil field value should delete the field: %v", got)
	}

	// Push generates ordered keys.
	k1, err := s.Push(ctx, "queries", map[string]any{"subject": "first", "status": "open"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	k2, err := s.Push(ctx, "queries", map[string]any{"subject": "second", "status": "open"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if k1 == "" || k2 == "" || k1 >= k2 {
		t.Fatalf("push keys not ordered: %q %q", k1, k2)
	}

	// Nested collection rows surface under their parent record.
	if _, err := s.Push(ctx, "queries/"+k1+"/replies", map[string]any{"message": "on it", "from": "admin"}); err != nil {
		t.Fatalf("Push reply: %v", err)
	}
	var q1 map[string]any
	mustGet(t, s, "queries/"+k1, &q1)
	if q1["subject"] != "first" {
		t.Fatalf("record fields lost: %v", q1)
	}
	replies, ok := q1["replies"].(map[string]any)
	if !ok || len(replies) != 1 {
		t.Fatalf("nested replies not assembled: %v", q1)
	}

	var queries map[string]map[string]any
	mustGet(t, s, "queries", &queries)
	if len(queries) != 2 {
		t.Fatalf("queries collection: %v", queries)
	}
	if _, ok := queries[k1]["replies"]; !ok {
		t.Fatalf("collection read should nest replies under %s: %v", k1, queries[k1])
	}

	// Update on a missing record creates it.
	if err := s.Update(ctx, "users/u3", map[string]any{"role": "member"}); err != nil {
		t.Fatalf("Update missing: %v", err)
	}
	mustGet(t, s, "users/u3", &got)
	if got["role"] != "member" {
		t.Fatalf("Update should create missing record: %v", got)
	}

	runWatch(t, s)
}

func runWatch(t *testing.T, s recordstore.Store) {
	t.Helper()
	ctx := context.Background()

	var mu sync.Mutex
	var snaps []json.RawMessage
	cancel, err := s.Watch(ctx, "adminNotifications", func(snap json.RawMessage) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cancel()

	// Initial snapshot arrives without any write.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snaps) >= 1
	}, "initial watch snapshot")

	if _, err := s.Push(ctx, "adminNotifications", map[string]any{"type": "payment", "read": false}); err != nil {
		t.Fatalf("Push during watch: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(snaps) == 0 {
			return false
		}
		last := snaps[len(snaps)-1]
		var m map[string]map[string]any
		if last == nil || json.Unmarshal(last, &m) != nil {
			return false
		}
		return len(m) == 1
	}, "watch snapshot after write")
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func mustGet(t *testing.T, s recordstore.Store, path string, out any) {
	t.Helper()
	snap, err := s.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("Get %s: %v", path, err)
	}
	if snap == nil {
		t.Fatalf("Get %s: absent", path)
	}
	if err := json.Unmarshal(snap, out); err != nil {
		t.Fatalf("Get %s: decode: %v", path, err)
	}
}

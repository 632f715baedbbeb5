package offline

import (
	"context"
	"errors"
	"testing"
)

// failingKV refuses writes, simulating a full or broken platform store.
type failingKV struct {
	*MemoryKV
}

func (f *failingKV) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func newFailingStore(t *testing.T) *SecureStore {
	t.Helper()
	c, err := NewCipher("test-secret", "s1")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return NewSecureStore(&failingKV{MemoryKV: NewMemoryKV()}, c, "s1", nil)
}

func newTestQueue(t *testing.T) (*Queue, *SecureStore, *MemoryKV) {
	t.Helper()
	store, kv := newTestStore(t, "s1")
	return NewQueue(context.Background(), store, nil), store, kv
}

func TestQueueEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t)

	for _, ep := range []string{"/a", "/b", "/c"} {
		if _, err := q.Enqueue(ctx, OpCreate, ep, "POST", map[string]int{"n": 1}); err != nil {
			t.Fatalf("enqueue %s: %v", ep, err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	items := q.Items()
	if items[0].Endpoint != "/a" || items[1].Endpoint != "/b" || items[2].Endpoint != "/c" {
		t.Fatalf("items not in insertion order: %+v", items)
	}
	for _, it := range items {
		if it.ID == "" || it.Timestamp == 0 {
			t.Fatalf("item missing id or timestamp: %+v", it)
		}
		if it.RetryCount != 0 {
			t.Fatalf("fresh item has retryCount %d", it.RetryCount)
		}
	}
}

func TestQueueSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	q, store, _ := newTestQueue(t)

	id, err := q.Enqueue(ctx, OpUpdate, "/delivery/7", "PUT", map[string]string{"status": "done"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	reloaded := NewQueue(ctx, store, nil)
	if reloaded.Len() != 1 {
		t.Fatalf("reloaded Len = %d, want 1", reloaded.Len())
	}
	got := reloaded.Items()[0]
	if got.ID != id || got.Kind != OpUpdate || got.Method != "PUT" {
		t.Fatalf("reloaded item mismatch: %+v", got)
	}
}

func TestQueueRemove(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t)

	id1, _ := q.Enqueue(ctx, OpCreate, "/a", "POST", nil)
	id2, _ := q.Enqueue(ctx, OpCreate, "/b", "POST", nil)

	if err := q.Remove(ctx, id1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if q.Len() != 1 || q.Items()[0].ID != id2 {
		t.Fatalf("wrong survivor after remove: %+v", q.Items())
	}

	// removing an unknown id is a no-op
	if err := q.Remove(ctx, "nope"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d after no-op remove", q.Len())
	}
}

func TestQueueClearDeletesKey(t *testing.T) {
	ctx := context.Background()
	q, _, kv := newTestQueue(t)

	if _, err := q.Enqueue(ctx, OpDelete, "/a", "DELETE", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d after clear", q.Len())
	}
	if _, ok, _ := kv.Get(ctx, "s1:offline_queue"); ok {
		t.Fatalf("persisted key must be deleted, not emptied")
	}

	// idempotent on an already-empty queue
	if err := q.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestQueueCorruptStateResets(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, "s1")

	// an object where an array is expected
	if err := store.Save(ctx, queueStoreName, map[string]int{"a": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	q := NewQueue(ctx, store, nil)
	if q.Len() != 0 {
		t.Fatalf("corrupt queue should start empty, Len = %d", q.Len())
	}
	if _, ok, _ := kv.Get(ctx, "s1:offline_queue"); ok {
		t.Fatalf("corrupt persisted key should be deleted")
	}
}

func TestQueueEnqueueKeepsItemOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(ctx, newFailingStore(t), nil)

	id, err := q.Enqueue(ctx, OpCreate, "/a", "POST", map[string]int{"n": 1})
	if err == nil {
		t.Fatalf("expected durability error from failing store")
	}
	if id == "" {
		t.Fatalf("enqueue must still return the new id")
	}
	// in-memory state stays authoritative for the session
	if q.Len() != 1 || q.Items()[0].ID != id {
		t.Fatalf("item not kept in memory after write failure: %+v", q.Items())
	}
}

func TestQueueItemsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	q, _, _ := newTestQueue(t)
	if _, err := q.Enqueue(ctx, OpCreate, "/a", "POST", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	items := q.Items()
	items[0].RetryCount = 99
	if q.Items()[0].RetryCount != 0 {
		t.Fatalf("Items returned a view into internal state")
	}
}

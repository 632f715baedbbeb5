package offline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// queueStoreName is the logical name of the persisted queue blob.
const queueStoreName = "offline_queue"

// OpKind describes the mutation a queue item carries.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// QueueItem is one pending mutation captured while offline. The engine
// never inspects Payload; it is replayed verbatim against the backend.
// JSON field names are the persisted wire format.
type QueueItem struct {
	ID         string          `json:"id"`
	Timestamp  int64           `json:"timestamp"` // creation time, unix ms
	Kind       OpKind          `json:"operationKind"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RetryCount int             `json:"retryCount"`
}

// Queue is a FIFO outbox of pending mutations. The in-memory list is the
// source of truth; the encrypted persisted form is a durability mirror
// rewritten whole after every mutation.
type Queue struct {
	mu    sync.Mutex
	items []QueueItem
	store *SecureStore
	log   *slog.Logger
}

// NewQueue loads any persisted queue for the store's scope. Corrupt or
// structurally invalid state resets to empty: replaying a garbled outbox
// is worse than losing it.
func NewQueue(ctx context.Context, store *SecureStore, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{store: store, log: log}
	if _, err := store.Load(ctx, queueStoreName, &q.items); err != nil {
		log.Warn("queue load failed, starting empty", "err", err)
		q.items = nil
	}
	return q
}

// Enqueue appends a new item and persists the whole queue. The item is
// queued in memory regardless of the outcome; a non-nil error means the
// write was not durable, which callers log and tolerate.
func (q *Queue) Enqueue(ctx context.Context, kind OpKind, endpoint, method string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	item := QueueItem{
		ID:        ulid.Make().String(),
		Timestamp: time.Now().UnixMilli(),
		Kind:      kind,
		Endpoint:  endpoint,
		Method:    method,
		Payload:   raw,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	if err := q.persistLocked(ctx); err != nil {
		q.log.Error("queue persist failed, item kept in memory", "id", item.ID, "err", err)
		return item.ID, err
	}
	return item.ID, nil
}

// Remove drops the item with the given id, if present, and persists.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, it := range q.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	q.items = kept
	return q.persistLocked(ctx)
}

// Clear empties the queue and deletes the persisted key outright. This
// is the logout wipe path; it must leave no blob behind, not even an
// encrypted empty array. Idempotent.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	return q.store.Wipe(ctx, queueStoreName)
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a defensive copy in insertion order, oldest first.
func (q *Queue) Items() []QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// persistLocked rewrites the whole queue blob. Callers hold q.mu.
func (q *Queue) persistLocked(ctx context.Context) error {
	return q.store.Save(ctx, queueStoreName, q.items)
}

// applyReconcile merges one reconciliation pass back into the live
// queue: dropped ids vanish, surviving snapshot items pick up their new
// retry count, items enqueued mid-pass stay untouched in order. One
// persistence write covers the whole merge; on write failure the merged
// in-memory state still stands.
func (q *Queue) applyReconcile(ctx context.Context, dropped map[string]bool, retries map[string]int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, it := range q.items {
		if dropped[it.ID] {
			continue
		}
		if n, ok := retries[it.ID]; ok {
			it.RetryCount = n
		}
		kept = append(kept, it)
	}
	q.items = kept
	if err := q.persistLocked(ctx); err != nil {
		q.log.Error("queue persist failed after reconcile", "err", err)
		return err
	}
	return nil
}

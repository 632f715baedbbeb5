// ABOUTME: Reconciler drains the offline queue against the backend.
// ABOUTME: Sequential FIFO replay with a per-item retry budget, non-reentrant.
package offline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultMaxAttempts is the retry budget: an item failing this many
// passes is dropped for good and counted as permanently failed.
const DefaultMaxAttempts = 3

// SyncFunc replays one queue item against the backend. True means the
// backend accepted the operation; false or an error means this attempt
// failed and the retry budget applies. Retried items may be re-sent
// after a partial prior failure, so the backend side must tolerate
// duplicates.
type SyncFunc func(ctx context.Context, item QueueItem) (bool, error)

// Result aggregates one reconciliation pass. Failed counts items whose
// retry budget ran out during this pass; there is no per-item surface.
type Result struct {
	Success int
	Failed  int
}

// Reconciler drains the queue when online. It is explicitly
// non-reentrant: two overlapping passes could double-count retries or
// resurrect an item the other pass dropped, so a second caller gets a
// zero Result immediately.
type Reconciler struct {
	queue       *Queue
	monitor     *Monitor
	maxAttempts int
	itemTimeout time.Duration
	inFlight    atomic.Bool
	log         *slog.Logger
}

// NewReconciler wires a reconciler to a queue and a connectivity
// monitor. Zero maxAttempts means DefaultMaxAttempts; zero itemTimeout
// means syncFn calls run uncapped under the caller's context.
func NewReconciler(queue *Queue, monitor *Monitor, maxAttempts int, itemTimeout time.Duration, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Reconciler{
		queue:       queue,
		monitor:     monitor,
		maxAttempts: maxAttempts,
		itemTimeout: itemTimeout,
		log:         log,
	}
}

// Reconcile runs one pass: snapshot the queue oldest-first, replay each
// item strictly sequentially, then merge outcomes back into the live
// queue in a single persisted write. Returns a zero Result without
// calling fn when offline, when the queue is empty, or when another
// pass is in flight. No backoff is applied between passes; scheduling
// is the caller's business.
func (r *Reconciler) Reconcile(ctx context.Context, fn SyncFunc) Result {
	if !r.monitor.Online() || r.queue.Len() == 0 {
		return Result{}
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		return Result{}
	}
	defer r.inFlight.Store(false)

	snapshot := r.queue.Items()
	var res Result
	dropped := make(map[string]bool)
	retries := make(map[string]int)

	for _, item := range snapshot {
		ok := r.replay(ctx, fn, item)
		if ok {
			dropped[item.ID] = true
			res.Success++
			continue
		}
		n := item.RetryCount + 1
		if n >= r.maxAttempts {
			dropped[item.ID] = true
			res.Failed++
			r.log.Warn("retry budget exhausted, dropping item",
				"id", item.ID, "endpoint", item.Endpoint, "attempts", n)
			continue
		}
		retries[item.ID] = n
	}

	if err := r.queue.applyReconcile(ctx, dropped, retries); err != nil {
		r.log.Error("reconcile outcome not durable", "err", err)
	}
	r.log.Info("reconcile pass complete",
		"success", res.Success, "failed", res.Failed, "remaining", r.queue.Len())
	return res
}

// replay invokes fn with the optional per-item timeout. A panic inside
// fn is recovered and treated as a failed attempt, same as an error.
func (r *Reconciler) replay(ctx context.Context, fn SyncFunc, item QueueItem) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("syncFn panicked", "id", item.ID, "panic", rec)
			ok = false
		}
	}()

	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.itemTimeout)
		defer cancel()
	}
	ok, err := fn(ctx, item)
	if err != nil {
		r.log.Debug("sync attempt failed",
			"id", item.ID, "endpoint", item.Endpoint, "err", err)
		return false
	}
	return ok
}

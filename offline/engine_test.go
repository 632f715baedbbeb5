package offline

import (
	"context"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.KV == nil {
		cfg.KV = NewMemoryKV()
	}
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	if cfg.Scope == "" {
		cfg.Scope = "s1"
	}
	e, err := NewEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestEngineRequiresKV(t *testing.T) {
	if _, err := NewEngine(context.Background(), Config{Secret: "s"}); err == nil {
		t.Fatalf("expected error without KV")
	}
}

func TestEngineEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{Online: true})

	if _, err := e.Queue.Enqueue(ctx, OpCreate, "/a", "POST", map[string]int{"n": 1}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := e.Cache.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}

	res := e.Reconcile(ctx, alwaysTrue)
	if res.Success != 1 || e.Queue.Len() != 0 {
		t.Fatalf("reconcile = %+v, Len = %d", res, e.Queue.Len())
	}
	if _, ok := e.Cache.Get(ctx, "k"); !ok {
		t.Fatalf("cache entry lost")
	}
}

func TestEngineFallbackWithoutSecret(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	e, err := NewEngine(ctx, Config{KV: kv, Scope: "s1"})
	if err != nil {
		t.Fatalf("engine must come up without crypto: %v", err)
	}

	if _, err := e.Queue.Enqueue(ctx, OpCreate, "/a", "POST", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// the state survives a reload through the same (fallback) cipher
	e2, err := NewEngine(ctx, Config{KV: kv, Scope: "s1"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if e2.Queue.Len() != 1 {
		t.Fatalf("fallback-encoded queue lost on reload, Len = %d", e2.Queue.Len())
	}
}

func TestEngineAutoSyncOnReconnect(t *testing.T) {
	ctx := context.Background()
	synced := make(chan string, 1)
	e := newTestEngine(t, Config{
		Online: false,
		AutoSync: func(_ context.Context, it QueueItem) (bool, error) {
			synced <- it.Endpoint
			return true, nil
		},
	})

	if _, err := e.Queue.Enqueue(ctx, OpCreate, "/offline-edit", "POST", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	e.SetOnline(true)

	select {
	case ep := <-synced:
		if ep != "/offline-edit" {
			t.Fatalf("synced %q", ep)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("auto sync never ran after reconnect")
	}
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	e := newTestEngine(t, Config{KV: kv})

	if _, err := e.Queue.Enqueue(ctx, OpCreate, "/a", "POST", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := e.Cache.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := e.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if e.Queue.Len() != 0 || e.Cache.Len() != 0 {
		t.Fatalf("reset left state behind")
	}
	if _, ok, _ := kv.Get(ctx, "s1:offline_queue"); ok {
		t.Fatalf("queue blob survived reset")
	}
	if _, ok, _ := kv.Get(ctx, "s1:offline_cache"); ok {
		t.Fatalf("cache blob survived reset")
	}
}

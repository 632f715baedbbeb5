package offline

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// warnCounter counts warning-level records across goroutines.
type warnCounter struct {
	mu    sync.Mutex
	warns int
}

func (h *warnCounter) Enabled(context.Context, slog.Level) bool { return true }

func (h *warnCounter) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.Level == slog.LevelWarn {
		h.warns++
	}
	return nil
}

func (h *warnCounter) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *warnCounter) WithGroup(string) slog.Handler      { return h }

func newTestStore(t *testing.T, scope Scope) (*SecureStore, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	c, err := NewCipher("test-secret", scope)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return NewSecureStore(kv, c, scope, nil), kv
}

func TestSecureStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, "s1")

	in := map[string]int{"a": 1, "b": 2}
	if err := store.Save(ctx, "blob", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	// the raw stored value must not be readable plaintext
	raw, ok, _ := kv.Get(ctx, "s1:blob")
	if !ok {
		t.Fatalf("expected key present")
	}
	if raw == `{"a":1,"b":2}` {
		t.Fatalf("stored value is plaintext")
	}

	var out map[string]int
	found, err := store.Load(ctx, "blob", &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf("expected value present")
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestSecureStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t, "s1")

	var out []int
	found, err := store.Load(context.Background(), "absent", &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatalf("expected miss for absent key")
	}
}

func TestSecureStoreCorruptResets(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, "s1")

	if err := kv.Set(ctx, "s1:blob", "%%% definitely not anything parseable"); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out map[string]int
	found, err := store.Load(ctx, "blob", &out)
	if err != nil {
		t.Fatalf("corruption must not surface as an error, got %v", err)
	}
	if found {
		t.Fatalf("corrupt value reported as present")
	}
	if _, ok, _ := kv.Get(ctx, "s1:blob"); ok {
		t.Fatalf("corrupt key should have been wiped")
	}
}

func TestSecureStoreWrongTypeResets(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, "s1")

	if err := store.Save(ctx, "blob", map[string]int{"a": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a queue expects an array; an object is structurally invalid
	var out []QueueItem
	found, err := store.Load(ctx, "blob", &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatalf("structurally invalid value reported as present")
	}
	if _, ok, _ := kv.Get(ctx, "s1:blob"); ok {
		t.Fatalf("invalid key should have been wiped")
	}
}

func TestSecureStoreScopeIsolation(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	ca, err := NewCipher("test-secret", "user-a")
	if err != nil {
		t.Fatalf("cipher a: %v", err)
	}
	cb, err := NewCipher("test-secret", "user-b")
	if err != nil {
		t.Fatalf("cipher b: %v", err)
	}
	a := NewSecureStore(kv, ca, "user-a", nil)
	b := NewSecureStore(kv, cb, "user-b", nil)

	if err := a.Save(ctx, "blob", []int{1, 2}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx, "blob", []int{3}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	var out []int
	if _, err := a.Load(ctx, "blob", &out); err != nil {
		t.Fatalf("load a: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("scope a read scope b's data: %v", out)
	}

	// wiping one scope leaves the other intact
	if err := a.Wipe(ctx, "blob"); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	found, err := b.Load(ctx, "blob", &out)
	if err != nil || !found {
		t.Fatalf("scope b lost data after scope a wipe: found=%v err=%v", found, err)
	}
}

func TestSecureStoreWarnsOncePerDowngrade(t *testing.T) {
	ctx := context.Background()
	h := &warnCounter{}
	store := NewSecureStore(NewMemoryKV(), &Cipher{}, "s1", slog.New(h))

	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, "blob", i); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if h.warns != 1 {
		t.Fatalf("crypto downgrade warned %d times across 3 saves, want 1", h.warns)
	}
}

func TestSecureStoreLegacyClearReadable(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, "s1")

	// data persisted before encryption was introduced
	if err := kv.Set(ctx, "s1:blob", `{"a":7}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out map[string]int
	found, err := store.Load(ctx, "blob", &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found || out["a"] != 7 {
		t.Fatalf("legacy clear data unreadable: found=%v out=%v", found, out)
	}
}

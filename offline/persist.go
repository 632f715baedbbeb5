// ABOUTME: Encrypted JSON persistence bridging the cipher and the KV port.
// ABOUTME: Every queue/cache store and load goes through here, never around it.
package offline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Scope identifies one authenticated session. It namespaces both the
// physical storage keys and the AEAD subkey, so constructing a new scope
// is how you switch users; wiping one scope cannot touch another's data.
type Scope string

// SecureStore persists JSON-serializable values transparently encrypted.
type SecureStore struct {
	kv     KV
	cipher *Cipher
	scope  Scope
	log    *slog.Logger

	warnOnce sync.Once
}

// NewSecureStore builds a store for one session scope. A nil logger
// falls back to slog.Default().
func NewSecureStore(kv KV, cipher *Cipher, scope Scope, log *slog.Logger) *SecureStore {
	if log == nil {
		log = slog.Default()
	}
	return &SecureStore{kv: kv, cipher: cipher, scope: scope, log: log}
}

// key maps a logical store name onto the scoped physical key.
func (s *SecureStore) key(name string) string {
	if s.scope == "" {
		return name
	}
	return string(s.scope) + ":" + name
}

// Save serializes v, seals it, and writes it under the scoped name.
// The returned error is the durability confirmation: on failure the
// caller's in-memory state stays authoritative for the session.
func (s *SecureStore) Save(ctx context.Context, name string, v any) error {
	plain, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !s.cipher.Available() {
		s.warnOnce.Do(func() {
			s.log.Warn("crypto unavailable, storing reversibly encoded", "store", name)
		})
	}
	sealed, err := s.cipher.Seal(plain)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key(name), sealed); err != nil {
		return &StoreError{Op: "set", Key: s.key(name), Err: err}
	}
	return nil
}

// Load reads, opens, and unmarshals the value under the scoped name into
// out. A missing key is (false, nil). A value that cannot be opened or
// parsed is corrupt: the key is wiped, a warning is logged, and the
// result is (false, nil) so the caller starts empty rather than failing.
func (s *SecureStore) Load(ctx context.Context, name string, out any) (bool, error) {
	stored, ok, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		return false, &StoreError{Op: "get", Key: s.key(name), Err: err}
	}
	if !ok {
		return false, nil
	}
	plain, openErr := s.cipher.Open(stored)
	if err := json.Unmarshal(plain, out); err != nil {
		s.log.Warn("corrupt persisted state, resetting",
			"store", name, "open_err", openErr, "parse_err", err)
		_ = s.kv.Delete(ctx, s.key(name))
		return false, nil
	}
	return true, nil
}

// Wipe deletes the persisted key entirely. Idempotent.
func (s *SecureStore) Wipe(ctx context.Context, name string) error {
	if err := s.kv.Delete(ctx, s.key(name)); err != nil {
		return &StoreError{Op: "delete", Key: s.key(name), Err: err}
	}
	return nil
}

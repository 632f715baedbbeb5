package offline

import (
	"log/slog"
	"time"
)

// Config wires one engine instance. Secret and Scope together determine
// the AEAD key; KV is where the encrypted blobs live.
type Config struct {
	Secret string // build-time application secret; empty disables AEAD
	Scope  Scope  // session identity, namespaces keys and subkeys
	KV     KV     // required

	Logger *slog.Logger // nil means slog.Default()
	Online bool         // initial connectivity answer from the platform

	DefaultTTL  time.Duration // cache default, zero means one hour
	MaxAttempts int           // reconciler retry budget, zero means 3
	ItemTimeout time.Duration // per-item syncFn cap, zero means none

	// AutoSync, when set, is invoked on every offline→online transition
	// as a background reconcile pass.
	AutoSync SyncFunc
}

package offline

import "context"

// KV is the platform key/value store the engine persists through.
// Implementations may fail on write (quota, connectivity to a local
// broker); callers log and continue with in-memory state authoritative.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes or overwrites a value.
	Set(ctx context.Context, key, value string) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

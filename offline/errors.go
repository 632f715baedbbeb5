// ABOUTME: Typed errors for the offline persistence engine.
// ABOUTME: Enables programmatic error handling with errors.Is() and errors.As().
package offline

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic handling.
var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrServerError       = errors.New("server error")
	ErrRateLimited       = errors.New("rate limited")
	ErrRejected          = errors.New("request rejected")
	ErrCryptoUnavailable = errors.New("crypto unavailable")
	ErrNotConfigured     = errors.New("sync not configured")
)

// StoreError wraps a key/value failure with operation context.
type StoreError struct {
	Op  string // "get", "set", "delete"
	Key string // storage key involved
	Err error  // underlying store error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// SyncError wraps a transport failure with operation context.
type SyncError struct {
	Op       string // "replay"
	Err      error  // underlying typed error
	Attempts int    // attempts made
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ReplayError wraps a failed item replay with transport context.
type ReplayError struct {
	ItemID   string // queue item that failed
	Endpoint string // target path
	Status   int    // HTTP status, 0 when the request never completed
	Err      error  // underlying typed error
}

func (e *ReplayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("replay %s to %s failed with status %d: %v",
			e.ItemID, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("replay %s to %s failed: %v", e.ItemID, e.Endpoint, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

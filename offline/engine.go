// ABOUTME: Engine facade wiring cipher, stores, queue, cache and reconciler.
// ABOUTME: One Config in, one offline-capable persistence engine out.
package offline

import (
	"context"
	"errors"
	"log/slog"
)

// Engine is the assembled offline persistence engine for one session.
// Queue and Cache are exposed directly; reconciliation, connectivity and
// the logout wipe go through the engine.
type Engine struct {
	Queue   *Queue
	Cache   *Cache
	Monitor *Monitor

	reconciler *Reconciler
	log        *slog.Logger
}

// NewEngine builds and loads an engine. Cipher initialization failure is
// not fatal: the engine downgrades to the reversible encoded form and
// logs one warning, because a field crew with no crypto still needs
// their queue.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.KV == nil {
		return nil, errors.New("offline: Config.KV is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	cipher, err := NewCipher(cfg.Secret, cfg.Scope)
	if err != nil {
		log.Warn("cipher init failed, falling back to encoded storage", "err", err)
	}
	store := NewSecureStore(cfg.KV, cipher, cfg.Scope, log)

	e := &Engine{
		Queue:   NewQueue(ctx, store, log),
		Cache:   NewCache(ctx, store, cfg.DefaultTTL, log),
		Monitor: NewMonitor(cfg.Online, log),
		log:     log,
	}
	e.reconciler = NewReconciler(e.Queue, e.Monitor, cfg.MaxAttempts, cfg.ItemTimeout, log)

	if cfg.AutoSync != nil {
		fn := cfg.AutoSync
		e.Monitor.OnChange(func(online bool) {
			if online {
				go e.Reconcile(context.Background(), fn)
			}
		})
	}
	return e, nil
}

// Reconcile runs one drain pass with the given sync function.
func (e *Engine) Reconcile(ctx context.Context, fn SyncFunc) Result {
	return e.reconciler.Reconcile(ctx, fn)
}

// SetOnline feeds a platform connectivity signal to the monitor.
func (e *Engine) SetOnline(online bool) { e.Monitor.SetOnline(online) }

// Online reports the current connectivity state.
func (e *Engine) Online() bool { return e.Monitor.Online() }

// Reset is the logout wipe: it clears queue and cache for this engine's
// scope so the next user on the device inherits nothing. The first
// failure is reported but both wipes are always attempted.
func (e *Engine) Reset(ctx context.Context) error {
	qErr := e.Queue.Clear(ctx)
	cErr := e.Cache.Clear(ctx)
	if qErr != nil {
		return qErr
	}
	return cErr
}

package offline

import (
	"log/slog"
	"sync"
)

// Monitor tracks a single boolean online state fed by platform signals.
// Transitions are edge-triggered: handlers fire only when the state
// actually changes, never on repeated same-state reports. No debounce is
// applied; callers needing flap suppression add it outside.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	handlers []func(online bool)
	log      *slog.Logger
}

// NewMonitor starts from the platform's current connectivity answer.
func NewMonitor(online bool, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{online: online, log: log}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnChange registers a transition handler. Handlers run on the goroutine
// that called SetOnline; a panicking handler is recovered and logged so
// one broken subscriber cannot take the engine down.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// SetOnline records a platform signal. Handlers fire outside the lock,
// in registration order, only on an actual edge.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	handlers := make([]func(bool), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.log.Debug("connectivity changed", "online", online)
	for _, fn := range handlers {
		m.fire(fn, online)
	}
}

func (m *Monitor) fire(fn func(bool), online bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("connectivity handler panicked", "panic", r)
		}
	}()
	fn(online)
}

package offline

import "testing"

func TestMonitorEdgeTriggered(t *testing.T) {
	m := NewMonitor(false, nil)
	if m.Online() {
		t.Fatalf("initial state should be offline")
	}

	var fired []bool
	m.OnChange(func(online bool) { fired = append(fired, online) })

	m.SetOnline(false) // same state, no edge
	m.SetOnline(true)
	m.SetOnline(true) // same state, no edge
	m.SetOnline(false)

	if len(fired) != 2 || fired[0] != true || fired[1] != false {
		t.Fatalf("expected [true false], got %v", fired)
	}
	if m.Online() {
		t.Fatalf("state should be offline at the end")
	}
}

func TestMonitorHandlerPanicRecovered(t *testing.T) {
	m := NewMonitor(false, nil)

	m.OnChange(func(bool) { panic("broken subscriber") })
	called := false
	m.OnChange(func(bool) { called = true })

	m.SetOnline(true) // must not panic
	if !called {
		t.Fatalf("second handler skipped after first panicked")
	}
	if !m.Online() {
		t.Fatalf("state change lost after handler panic")
	}
}

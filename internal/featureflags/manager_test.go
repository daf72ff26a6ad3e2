package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags are off")
	}
}

func TestEnabled_Defaults(t *testing.T) {
	m := NewManager("")
	if !m.Enabled(Recommendations, 3) || !m.Enabled(LivePush, 3) {
		t.Fatal("built-in flags default to on")
	}

	m = NewManager("Recommendations = OFF")
	if m.Enabled(Recommendations, 3) {
		t.Fatal("config overrides defaults case-insensitively")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=x%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) || m.Enabled("junk", 1) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per viewer")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires non-zero viewerID")
	}
}

func TestGateAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,recommendations=off, y = 20% ")

	gate := m.Gate(Recommendations)
	if gate(1) {
		t.Fatal("gate should follow the flag")
	}

	snap := m.Snapshot(123)
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d: %#v", len(snap), snap)
	}
	if !snap[LivePush] {
		t.Fatal("live_push keeps its default")
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(Recommendations, 1) {
		t.Fatal("nil manager disables everything")
	}
}

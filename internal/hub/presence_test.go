package hub

import (
	"sort"
	"testing"
)

func TestRegistry_RegisterAndIsOnline(t *testing.T) {
	r := NewRegistry()

	if r.IsOnline("alice") {
		t.Error("expected alice to be offline before registration")
	}

	a := newTestClient("alice")
	if displaced := r.Register(a); displaced != nil {
		t.Errorf("expected no displaced client, got %s", displaced.ID)
	}

	if !r.IsOnline("alice") {
		t.Error("expected alice to be online after registration")
	}
	if got, ok := r.Get("alice"); !ok || got != a {
		t.Error("Get should return the registered client")
	}
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}
}

func TestRegistry_ReconnectReplaces(t *testing.T) {
	r := NewRegistry()

	old := newTestClient("alice")
	r.Register(old)

	replacement := newTestClient("alice")
	displaced := r.Register(replacement)

	if displaced != old {
		t.Fatal("expected the old channel to be displaced")
	}
	if got, _ := r.Get("alice"); got != replacement {
		t.Error("registry should hold the replacement channel")
	}
	if r.Count() != 1 {
		t.Errorf("reconnect must not duplicate entries, count = %d", r.Count())
	}
}

func TestRegistry_StaleDisconnectIgnored(t *testing.T) {
	r := NewRegistry()

	old := newTestClient("alice")
	r.Register(old)

	replacement := newTestClient("alice")
	r.Register(replacement)

	// The superseded channel's disconnect fires after the replacement
	// registered. It must not evict the newer registration.
	if r.Deregister("alice", old.ID) {
		t.Error("stale disconnect should be a no-op")
	}
	if !r.IsOnline("alice") {
		t.Error("alice must stay online after a stale disconnect")
	}

	if !r.Deregister("alice", replacement.ID) {
		t.Error("matching disconnect should deregister")
	}
	if r.IsOnline("alice") {
		t.Error("alice should be offline after the authoritative disconnect")
	}
}

func TestRegistry_DeregisterAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	if r.Deregister("ghost", "whatever") {
		t.Error("deregistering an absent user should return false")
	}
}

func TestRegistry_ListOnline(t *testing.T) {
	r := NewRegistry()
	r.Register(newTestClient("alice"))
	r.Register(newTestClient("bob"))
	r.Register(newTestClient("carol"))

	got := r.ListOnline()
	sort.Strings(got)

	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("expected %d online users, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("online[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRegistry_RegisterDeregisterSequences(t *testing.T) {
	r := NewRegistry()

	// isOnline must reflect exactly whether the most recently registered
	// channel is still open, across arbitrary sequences.
	c1 := newTestClient("u")
	c2 := newTestClient("u")
	c3 := newTestClient("u")

	r.Register(c1)
	r.Register(c2)
	r.Deregister("u", c1.ID) // stale
	r.Register(c3)
	r.Deregister("u", c2.ID) // stale

	if got, _ := r.Get("u"); got != c3 {
		t.Fatal("last-registered channel must win")
	}

	r.Deregister("u", c3.ID)
	if r.IsOnline("u") {
		t.Error("user should be offline once the live channel deregisters")
	}
}

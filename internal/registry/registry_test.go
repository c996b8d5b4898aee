package registry

import (
	"testing"
	"time"
)

func TestUpsertLookupSnapshot(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", time.Minute)
	if !reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9001) {
		t.Fatalf("first upsert should report a new peer")
	}
	if reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9002) {
		t.Fatalf("second upsert should not report a new peer")
	}
	peer, ok := reg.Lookup("bob@10.0.0.2")
	if !ok || peer.Port != 9002 {
		t.Fatalf("lookup after upsert failed: %v %v", ok, peer)
	}
	reg.Upsert("carol@10.0.0.3", "10.0.0.3", 9001)
	snap := reg.Snapshot()
	if len(snap) != 2 || snap[0].UserID != "bob@10.0.0.2" || snap[1].UserID != "carol@10.0.0.3" {
		t.Fatalf("snapshot not ordered by user_id: %v", snap)
	}
}

func TestUpsertIgnoresSelf(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", time.Minute)
	if reg.Upsert("alice@10.0.0.1", "10.0.0.1", 9001) {
		t.Fatalf("self must never be registered")
	}
	if len(reg.Snapshot()) != 0 {
		t.Fatalf("snapshot must stay empty")
	}
}

func TestSweepEvictsSilentPeers(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", 100*time.Millisecond)
	reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9001)
	reg.Upsert("carol@10.0.0.3", "10.0.0.3", 9001)

	reg.mu.Lock()
	reg.peers["bob@10.0.0.2"].LastSeen = time.Now().Add(-time.Second)
	reg.mu.Unlock()

	if _, ok := reg.Lookup("bob@10.0.0.2"); !ok {
		t.Fatalf("bob should still be present before the sweep")
	}
	removed := reg.Sweep()
	if len(removed) != 1 || removed[0].UserID != "bob@10.0.0.2" {
		t.Fatalf("unexpected sweep result: %v", removed)
	}
	if _, ok := reg.Lookup("bob@10.0.0.2"); ok {
		t.Fatalf("bob should be gone after the sweep")
	}
	if _, ok := reg.Lookup("carol@10.0.0.3"); !ok {
		t.Fatalf("carol should survive the sweep")
	}
}

func TestJoinedAndLeftEvents(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", 50*time.Millisecond)
	reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9001)

	evt := <-reg.Events()
	if evt.Kind != PeerJoined || evt.Peer.UserID != "bob@10.0.0.2" {
		t.Fatalf("expected joined event, got %v", evt)
	}

	reg.mu.Lock()
	reg.peers["bob@10.0.0.2"].LastSeen = time.Now().Add(-time.Second)
	reg.mu.Unlock()
	reg.Sweep()

	evt = <-reg.Events()
	if evt.Kind != PeerLeft || evt.Peer.UserID != "bob@10.0.0.2" {
		t.Fatalf("expected left event, got %v", evt)
	}
}

func TestResolveBareUsername(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", time.Minute)
	reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9001)
	peer, ok := reg.Resolve("bob")
	if !ok || peer.UserID != "bob@10.0.0.2" {
		t.Fatalf("bare name should resolve: %v %v", ok, peer)
	}
	reg.Upsert("bob@10.0.0.9", "10.0.0.9", 9001)
	if _, ok := reg.Resolve("bob"); ok {
		t.Fatalf("ambiguous bare name must not resolve")
	}
	if _, ok := reg.Resolve("bob@10.0.0.9"); !ok {
		t.Fatalf("full user_id must still resolve")
	}
}

func TestDisplayNameFallsBackToUserID(t *testing.T) {
	reg := NewRegistry("alice@10.0.0.1", time.Minute)
	reg.Upsert("bob@10.0.0.2", "10.0.0.2", 9001)
	peer, _ := reg.Lookup("bob@10.0.0.2")
	if peer.DisplayName() != "bob@10.0.0.2" {
		t.Fatalf("expected user_id fallback, got %q", peer.DisplayName())
	}
	reg.SetProfile("bob@10.0.0.2", Profile{DisplayName: "Bob", Status: "around"})
	peer, _ = reg.Lookup("bob@10.0.0.2")
	if peer.DisplayName() != "Bob" {
		t.Fatalf("expected advertised name, got %q", peer.DisplayName())
	}
}

package social

import (
	"errors"
	"testing"
	"time"
)

const (
	alice = "alice@10.0.0.1"
	bob   = "bob@10.0.0.2"
	carol = "carol@10.0.0.3"
)

func TestFollowIsIdempotent(t *testing.T) {
	g := NewFollowGraph()
	if !g.Follow(alice, bob) {
		t.Fatalf("first follow should be new")
	}
	if g.Follow(alice, bob) {
		t.Fatalf("re-following must be a no-op")
	}
	if !g.Follows(alice, bob) {
		t.Fatalf("edge should exist")
	}
	if g.Follows(bob, alice) {
		t.Fatalf("edges are directed")
	}
	if !g.Unfollow(alice, bob) {
		t.Fatalf("unfollow should remove the edge")
	}
	if g.Unfollow(alice, bob) {
		t.Fatalf("second unfollow must be a no-op")
	}
}

func TestFollowersAndFollowing(t *testing.T) {
	g := NewFollowGraph()
	g.Follow(alice, carol)
	g.Follow(bob, carol)
	g.Follow(alice, bob)
	followers := g.Followers(carol)
	if len(followers) != 2 || followers[0] != alice || followers[1] != bob {
		t.Fatalf("unexpected followers: %v", followers)
	}
	following := g.Following(alice)
	if len(following) != 2 || following[0] != bob || following[1] != carol {
		t.Fatalf("unexpected following: %v", following)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	g := NewFollowGraph()
	if g.Follow(alice, alice) {
		t.Fatalf("self-follow must not create an edge")
	}
}

func TestLikeSetIsIdempotent(t *testing.T) {
	idx := NewLikeIndex()
	if !idx.Like("post-1", alice) {
		t.Fatalf("first like should change the set")
	}
	if idx.Like("post-1", alice) {
		t.Fatalf("second like must be a no-op")
	}
	if idx.Count("post-1") != 1 {
		t.Fatalf("like set size should stay 1, got %d", idx.Count("post-1"))
	}
	idx.Like("post-1", bob)
	likers := idx.Likers("post-1")
	if len(likers) != 2 || likers[0] != alice {
		t.Fatalf("unexpected likers: %v", likers)
	}
	if !idx.Unlike("post-1", alice) || idx.Unlike("post-1", alice) {
		t.Fatalf("unlike must remove once")
	}
	if idx.Count("post-1") != 1 {
		t.Fatalf("expected one liker left")
	}
}

func TestThreadKeyedByUnorderedPair(t *testing.T) {
	threads := NewDMThreads()
	now := time.Now()
	threads.Append(alice, bob, "hi", now)
	threads.Append(bob, alice, "hey back", now.Add(time.Second))

	forward := threads.Thread(alice, bob)
	reverse := threads.Thread(bob, alice)
	if len(forward) != 2 || len(reverse) != 2 {
		t.Fatalf("thread should be shared: %d/%d", len(forward), len(reverse))
	}
	if forward[0].From != alice || forward[0].Content != "hi" {
		t.Fatalf("order lost: %+v", forward[0])
	}
	if forward[1].From != bob {
		t.Fatalf("direction lost: %+v", forward[1])
	}
	partners := threads.Partners(alice)
	if len(partners) != 1 || partners[0] != bob {
		t.Fatalf("unexpected partners: %v", partners)
	}
}

func TestGroupCreateDeduplicatesMembers(t *testing.T) {
	groups := NewGroups()
	err := groups.Create("g-lunch", "lunch", alice, []string{bob, bob, alice, carol})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	grp, ok := groups.Get("g-lunch")
	if !ok || len(grp.Members) != 3 {
		t.Fatalf("member set should have 3 entries: %v", grp.Members)
	}
	if err := groups.Create("g-lunch", "again", bob, nil); !errors.Is(err, ErrGroupExists) {
		t.Fatalf("duplicate id must fail, got %v", err)
	}
}

func TestOnlyCreatorMutatesMembership(t *testing.T) {
	groups := NewGroups()
	if err := groups.Create("g-1", "team", alice, []string{bob}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := groups.UpdateMembers("g-1", bob, []string{carol}, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("non-creator mutation must fail, got %v", err)
	}
	if groups.IsMember("g-1", carol) {
		t.Fatalf("denied mutation must not change the set")
	}
	if err := groups.UpdateMembers("g-1", alice, []string{carol}, []string{bob}); err != nil {
		t.Fatalf("creator mutation: %v", err)
	}
	if groups.IsMember("g-1", bob) || !groups.IsMember("g-1", carol) {
		t.Fatalf("update not applied")
	}
	// The creator cannot be removed, even by themselves.
	if err := groups.UpdateMembers("g-1", alice, nil, []string{alice}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !groups.IsMember("g-1", alice) {
		t.Fatalf("creator must stay a member")
	}
}

func TestGroupAppendFansOutToOthers(t *testing.T) {
	groups := NewGroups()
	groups.Create("g-1", "team", alice, []string{bob, carol})
	recipients, err := groups.Append("g-1", bob, "standup?", time.Now())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected fan-out to 2 members, got %v", recipients)
	}
	for _, r := range recipients {
		if r == bob {
			t.Fatalf("sender must be excluded from fan-out")
		}
	}
	grp, _ := groups.Get("g-1")
	if len(grp.Log) != 1 || grp.Log[0].Content != "standup?" {
		t.Fatalf("log not appended: %v", grp.Log)
	}
	if _, err := groups.Append("g-1", "mallory@10.0.0.9", "hi", time.Now()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("non-member append must fail, got %v", err)
	}
	if _, err := groups.Append("g-404", alice, "hi", time.Now()); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("unknown group must fail, got %v", err)
	}
}

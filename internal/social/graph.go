package social

import (
	"sort"
	"sync"
)

// FollowGraph holds directed follower → followee edges. Both mutations are
// idempotent: re-following is a no-op success, as is unfollowing a stranger.
type FollowGraph struct {
	mu    sync.RWMutex
	edges map[string]map[string]struct{}
}

func NewFollowGraph() *FollowGraph {
	return &FollowGraph{edges: make(map[string]map[string]struct{})}
}

// Follow adds an edge and reports whether it was new.
func (g *FollowGraph) Follow(follower, followee string) bool {
	if follower == "" || followee == "" || follower == followee {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.edges[follower]
	if !ok {
		set = make(map[string]struct{})
		g.edges[follower] = set
	}
	if _, exists := set[followee]; exists {
		return false
	}
	set[followee] = struct{}{}
	return true
}

// Unfollow removes an edge and reports whether it existed.
func (g *FollowGraph) Unfollow(follower, followee string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.edges[follower]
	if !ok {
		return false
	}
	if _, exists := set[followee]; !exists {
		return false
	}
	delete(set, followee)
	return true
}

// Follows reports whether the edge follower → followee exists.
func (g *FollowGraph) Follows(follower, followee string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[follower][followee]
	return ok
}

// Following lists everyone the user follows, sorted.
func (g *FollowGraph) Following(follower string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.edges[follower])
}

// Followers lists everyone following the user, sorted.
func (g *FollowGraph) Followers(followee string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for follower, set := range g.edges {
		if _, ok := set[followee]; ok {
			out = append(out, follower)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
